package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"flipclub/internal/interfaces"
	"flipclub/internal/models"
)

// In-memory store implementations mirroring the conditional-update contracts
// of the postgres layer, so the services can be exercised without a database.

type memEntitlementStore struct {
	mu     sync.Mutex
	daily  map[string]int
	grants []*models.BonusGrant
	nextID int64
}

func newMemEntitlementStore() *memEntitlementStore {
	return &memEntitlementStore{daily: map[string]int{}, nextID: 1}
}

func dailyKey(userID int64, day string) string {
	return fmt.Sprintf("%d|%s", userID, day)
}

func (s *memEntitlementStore) DailyConsumption(ctx context.Context, userID int64, day string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.daily[dailyKey(userID, day)], nil
}

func (s *memEntitlementStore) ConsumeDailyUnit(ctx context.Context, userID int64, day string, cap int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cap <= 0 {
		return false, nil
	}
	key := dailyKey(userID, day)
	if s.daily[key] >= cap {
		return false, nil
	}
	s.daily[key]++
	return true, nil
}

func (s *memEntitlementStore) ActiveBonusUnits(ctx context.Context, userID int64, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, g := range s.grants {
		if g.UserID == userID && g.Active(now) {
			total += g.UnitsRemaining
		}
	}
	return total, nil
}

func (s *memEntitlementStore) ConsumeBonusUnit(ctx context.Context, userID int64, now time.Time) (*models.BonusGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var candidates []*models.BonusGrant
	for _, g := range s.grants {
		if g.UserID == userID && g.Active(now) {
			candidates = append(candidates, g)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// earliest expiry first, unexpiring grants last
	sort.SliceStable(candidates, func(i, j int) bool {
		gi, gj := candidates[i], candidates[j]
		if gi.ExpiresAt == nil && gj.ExpiresAt == nil {
			return gi.ID < gj.ID
		}
		if gi.ExpiresAt == nil {
			return false
		}
		if gj.ExpiresAt == nil {
			return true
		}
		if gi.ExpiresAt.Equal(*gj.ExpiresAt) {
			return gi.ID < gj.ID
		}
		return gi.ExpiresAt.Before(*gj.ExpiresAt)
	})

	g := candidates[0]
	g.UnitsRemaining--
	copied := *g
	return &copied, nil
}

func (s *memEntitlementStore) InsertBonusGrant(ctx context.Context, grant *models.BonusGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	grant.ID = s.nextID
	s.nextID++
	s.grants = append(s.grants, grant)
	return nil
}

func (s *memEntitlementStore) BonusGrantsByUser(ctx context.Context, userID int64) ([]*models.BonusGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.BonusGrant
	for _, g := range s.grants {
		if g.UserID == userID {
			copied := *g
			out = append(out, &copied)
		}
	}
	return out, nil
}

type memFlipStore struct {
	mu      sync.Mutex
	records map[string]*models.FlipRecord
}

func newMemFlipStore() *memFlipStore {
	return &memFlipStore{records: map[string]*models.FlipRecord{}}
}

func (s *memFlipStore) InsertFlipRecord(ctx context.Context, record *models.FlipRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; ok {
		return nil
	}
	copied := *record
	s.records[record.ID] = &copied
	return nil
}

func (s *memFlipStore) CountFlipsByUserMonth(ctx context.Context, userID int64, month string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range s.records {
		if r.UserID == userID && r.Month == month {
			n++
		}
	}
	return n, nil
}

func (s *memFlipStore) RecountEntriesByMonth(ctx context.Context, month string) ([]models.UserEntries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[int64]int64{}
	for _, r := range s.records {
		if r.Month == month {
			counts[r.UserID]++
		}
	}
	var out []models.UserEntries
	for userID, count := range counts {
		out = append(out, models.UserEntries{UserID: userID, EntryCount: count})
	}
	return out, nil
}

type memEntryStore struct {
	mu      sync.Mutex
	entries map[string]map[int64]int64
}

func newMemEntryStore() *memEntryStore {
	return &memEntryStore{entries: map[string]map[int64]int64{}}
}

func (s *memEntryStore) month(month string) map[int64]int64 {
	m, ok := s.entries[month]
	if !ok {
		m = map[int64]int64{}
		s.entries[month] = m
	}
	return m
}

func (s *memEntryStore) IncrementEntry(ctx context.Context, userID int64, month string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.month(month)[userID]++
	return nil
}

func (s *memEntryStore) EntryCount(ctx context.Context, userID int64, month string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.month(month)[userID], nil
}

func (s *memEntryStore) TotalEntries(ctx context.Context, month string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, count := range s.month(month) {
		total += count
	}
	return total, nil
}

func (s *memEntryStore) TotalParticipants(ctx context.Context, month string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, count := range s.month(month) {
		if count > 0 {
			n++
		}
	}
	return n, nil
}

func (s *memEntryStore) EntriesByMonth(ctx context.Context, month string) ([]models.UserEntries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.UserEntries
	for userID, count := range s.month(month) {
		if count > 0 {
			out = append(out, models.UserEntries{UserID: userID, EntryCount: count})
		}
	}
	return out, nil
}

// setEntry force-writes a projection value, for drift scenarios.
func (s *memEntryStore) setEntry(userID int64, month string, count int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.month(month)[userID] = count
}

type memPrizeStore struct {
	mu     sync.Mutex
	prizes map[string]*models.MonthlyPrize
	nextID int64
}

func newMemPrizeStore() *memPrizeStore {
	return &memPrizeStore{prizes: map[string]*models.MonthlyPrize{}, nextID: 1}
}

func (s *memPrizeStore) GetPrize(ctx context.Context, month string) (*models.MonthlyPrize, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prizes[month]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (s *memPrizeStore) UpsertPrize(ctx context.Context, prize *models.MonthlyPrize) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.prizes[prize.Month]
	if ok {
		if existing.Status == models.PrizeStatusDrawn || existing.Status == models.PrizeStatusCancelled {
			return false, nil
		}
		existing.Title = prize.Title
		existing.Description = prize.Description
		existing.ImageURL = prize.ImageURL
		existing.DrawingDate = prize.DrawingDate
		existing.UpdatedAt = time.Now().UTC()
		return true, nil
	}

	copied := *prize
	copied.ID = s.nextID
	s.nextID++
	copied.Status = models.PrizeStatusScheduled
	s.prizes[prize.Month] = &copied
	return true, nil
}

func (s *memPrizeStore) transition(month string, from, to models.PrizeStatus) bool {
	p, ok := s.prizes[month]
	if !ok || p.Status != from {
		return false
	}
	p.Status = to
	p.UpdatedAt = time.Now().UTC()
	return true
}

func (s *memPrizeStore) ActivatePrize(ctx context.Context, month string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transition(month, models.PrizeStatusScheduled, models.PrizeStatusActive), nil
}

func (s *memPrizeStore) CancelPrize(ctx context.Context, month string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transition(month, models.PrizeStatusScheduled, models.PrizeStatusCancelled) {
		return true, nil
	}
	return s.transition(month, models.PrizeStatusActive, models.PrizeStatusCancelled), nil
}

func (s *memPrizeStore) MarkDrawn(ctx context.Context, month string, winnerUserID, winnerEntryCount, totalEntries int64, drawnAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prizes[month]
	if !ok || p.Status != models.PrizeStatusActive {
		return false, nil
	}
	p.Status = models.PrizeStatusDrawn
	p.WinnerUserID = &winnerUserID
	p.WinnerEntryCount = &winnerEntryCount
	p.TotalEntries = &totalEntries
	p.DrawnAt = &drawnAt
	p.UpdatedAt = drawnAt
	return true, nil
}

type memBalanceStore struct {
	mu          sync.Mutex
	balances    map[int64]*models.Balance
	credits     map[string]bool
	withdrawals map[string]*models.WithdrawalRequest
}

func newMemBalanceStore() *memBalanceStore {
	return &memBalanceStore{
		balances:    map[int64]*models.Balance{},
		credits:     map[string]bool{},
		withdrawals: map[string]*models.WithdrawalRequest{},
	}
}

func (s *memBalanceStore) Credit(ctx context.Context, userID int64, flipID string, amount int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.credits[flipID] {
		return false, nil
	}
	s.credits[flipID] = true
	b, ok := s.balances[userID]
	if !ok {
		b = &models.Balance{UserID: userID}
		s.balances[userID] = b
	}
	b.TotalWon += amount
	b.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *memBalanceStore) Balance(ctx context.Context, userID int64) (*models.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.balances[userID]
	if !ok {
		return &models.Balance{UserID: userID}, nil
	}
	copied := *b
	return &copied, nil
}

func (s *memBalanceStore) InsertWithdrawal(ctx context.Context, request *models.WithdrawalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.withdrawals {
		if w.UserID == request.UserID && !w.Status.Terminal() {
			return ErrWithdrawalOutstanding
		}
	}
	copied := *request
	s.withdrawals[request.ID] = &copied
	return nil
}

func (s *memBalanceStore) Outstanding(ctx context.Context, userID int64) (*models.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.withdrawals {
		if w.UserID == userID && !w.Status.Terminal() {
			copied := *w
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memBalanceStore) WithdrawalByID(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[id]
	if !ok {
		return nil, nil
	}
	copied := *w
	return &copied, nil
}

func (s *memBalanceStore) ListWithdrawals(ctx context.Context, userID int64) ([]*models.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.WithdrawalRequest
	for _, w := range s.withdrawals {
		if w.UserID == userID {
			copied := *w
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memBalanceStore) MarkApproved(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[id]
	if !ok || w.Status != models.WithdrawalStatusRequested {
		return false, nil
	}
	w.Status = models.WithdrawalStatusApproved
	w.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *memBalanceStore) MarkRejected(ctx context.Context, id string, settledBy string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[id]
	if !ok || (w.Status != models.WithdrawalStatusRequested && w.Status != models.WithdrawalStatusApproved) {
		return false, nil
	}
	now := time.Now().UTC()
	w.Status = models.WithdrawalStatusRejected
	w.SettledBy = &settledBy
	w.SettledAt = &now
	w.UpdatedAt = now
	return true, nil
}

func (s *memBalanceStore) MarkPaid(ctx context.Context, id string, txRef string, settledBy string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[id]
	if !ok || w.Status != models.WithdrawalStatusApproved {
		return false, nil
	}
	now := time.Now().UTC()
	w.Status = models.WithdrawalStatusPaid
	w.TxRef = &txRef
	w.SettledBy = &settledBy
	w.SettledAt = &now
	w.UpdatedAt = now

	b, okB := s.balances[w.UserID]
	if !okB {
		b = &models.Balance{UserID: w.UserID}
		s.balances[w.UserID] = b
	}
	b.TotalWithdrawn += w.Amount
	b.UpdatedAt = now
	return true, nil
}

type staticConfig map[string]string

func (c staticConfig) GetStringConfig(ctx context.Context, key string, defaultValue string) (string, error) {
	if v, ok := c[key]; ok {
		return v, nil
	}
	return defaultValue, nil
}

func (c staticConfig) GetIntConfig(ctx context.Context, key string, defaultValue int) (int, error) {
	if v, ok := c[key]; ok {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n, nil
		}
	}
	return defaultValue, nil
}

type stubTierResolver struct {
	tiers       map[int64]models.Tier
	defaultTier models.Tier
}

var _ interfaces.TierResolver = (*stubTierResolver)(nil)

func (r *stubTierResolver) Tier(ctx context.Context, userID int64) (models.Tier, error) {
	if t, ok := r.tiers[userID]; ok {
		return t, nil
	}
	if r.defaultTier != 0 {
		return r.defaultTier, nil
	}
	return models.TierBase, nil
}
