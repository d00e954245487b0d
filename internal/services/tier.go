package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"flipclub/internal/models"

	"github.com/gojek/heimdall/v7/httpclient"
	"github.com/samber/do"
)

// ServiceTier resolves a user's membership tier from the community service.
// Tier is point-in-time state: it is fetched fresh on every call, never cached
// and never stored on entitlement rows. The client's timeout and retries are
// the only resilience layer.
type ServiceTier struct {
	container *do.Injector
	client    *httpclient.Client
	baseURL   string
	apiKey    string
}

type tierResponse struct {
	UserID int64  `json:"user_id"`
	Tier   string `json:"tier"`
}

func NewServiceTier(container *do.Injector) (*ServiceTier, error) {
	vs, err := do.InvokeNamed[map[string]string](container, "envs")
	if err != nil {
		return nil, err
	}

	return NewServiceTierDirect(vs["TIER_SERVICE_URL"], vs["TIER_SERVICE_API_KEY"]), nil
}

// NewServiceTierDirect wires the resolver without a container.
func NewServiceTierDirect(baseURL, apiKey string) *ServiceTier {
	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(5*time.Second),
		httpclient.WithRetryCount(2),
	)

	return &ServiceTier{nil, client, baseURL, apiKey}
}

// Tier returns the user's current tier, defaulting to base membership when the
// community service has no record of the user.
func (service *ServiceTier) Tier(ctx context.Context, userID int64) (models.Tier, error) {
	return service.fetchTier(ctx, userID)
}

func (service *ServiceTier) fetchTier(_ context.Context, userID int64) (models.Tier, error) {
	url := fmt.Sprintf("%s/api/v1/members/%d/tier", service.baseURL, userID)
	headers := http.Header{}
	if service.apiKey != "" {
		headers.Set("X-Api-Key", service.apiKey)
	}

	res, err := service.client.Get(url, headers)
	if err != nil {
		return models.TierBase, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return models.TierBase, nil
	}
	if res.StatusCode != http.StatusOK {
		return models.TierBase, fmt.Errorf("tier service: unexpected status %d", res.StatusCode)
	}

	var body tierResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return models.TierBase, err
	}

	tier, err := models.ParseTier(body.Tier)
	if err != nil {
		return models.TierBase, nil
	}

	return tier, nil
}
