package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/tonkeeper/tongo"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"

	"flipclub/internal/datastore"
	"flipclub/internal/interfaces"
	"flipclub/internal/models"
	"flipclub/internal/pkg/caching"
	"flipclub/internal/pkg/ton_utils"
)

type ServiceUser struct {
	container          *do.Injector
	redisDB            redis.UniversalClient
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache

	bot          *Bot
	tierResolver interfaces.TierResolver
}

func NewServiceUser(container *do.Injector) (*ServiceUser, error) {
	db, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	bot, err := do.Invoke[*Bot](container)
	if err != nil {
		return nil, err
	}

	tierResolver, err := do.Invoke[interfaces.TierResolver](container)
	if err != nil {
		return nil, err
	}

	return &ServiceUser{container, db, postgresDB, readonlyPostgresDB, cache, readonlyCache, bot, tierResolver}, nil
}

func (service *ServiceUser) FindOrCreateUser(ctx context.Context, userAuth *models.UserFromAuth) (*models.User, error) {
	if userAuth == nil {
		return nil, errors.New("userAuth is nil")
	}

	user, _ := service.FindUserByID(ctx, userAuth.ID)
	if user != nil {
		if (user.Username != strings.ToLower(userAuth.Username)) ||
			(user.FirstName != userAuth.FirstName) ||
			(user.LastName != userAuth.LastName) ||
			(user.PhotoURL != userAuth.PhotoURL) {
			user.Username = strings.ToLower(userAuth.Username)
			user.FirstName = userAuth.FirstName
			user.LastName = userAuth.LastName
			user.PhotoURL = userAuth.PhotoURL
			//nolint:errcheck
			datastore.UpdateUserProfile(ctx, service.postgresDB, user)
			_ = service.cache.Delete(ctx, DBKeyUser(user.ID))
		}
		return user, nil
	}

	now := time.Now()
	newUser := &models.User{
		ID:           userAuth.ID,
		FirstName:    userAuth.FirstName,
		IsBot:        userAuth.IsBot,
		IsPremium:    userAuth.IsPremium,
		LastName:     userAuth.LastName,
		Username:     strings.ToLower(userAuth.Username),
		LanguageCode: userAuth.LanguageCode,
		PhotoURL:     userAuth.PhotoURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	log.Println("Create new user:", "user:", newUser.ID, "username:", newUser.Username)
	user, err := datastore.CreateUser(ctx, service.postgresDB, newUser)
	if err != nil {
		return nil, err
	}

	user.IsNewUser = true

	go func() {
		err = service.bot.SendWelcomeMsg(user.ID)
		if err != nil {
			log.Println(err)
		}
	}()

	return user, nil
}

func (service *ServiceUser) FindUserByID(ctx context.Context, userID int64) (*models.User, error) {
	callback := func() (*models.User, error) {
		return datastore.FindUserByID(ctx, service.readonlyPostgresDB, userID)
	}
	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyUser(userID), CACHE_TTL_5_MINS, callback)
}

func (service *ServiceUser) FindUserWalletByUserID(ctx context.Context, userID int64) (*models.UserWallet, error) {
	callback := func() (*models.UserWallet, error) {
		return datastore.FindUserWalletByUserID(ctx, service.readonlyPostgresDB, userID)
	}
	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyUserWallet(userID), CACHE_TTL_5_MINS, callback)
}

// Me returns the user's profile enriched with current tier and wallet.
func (service *ServiceUser) Me(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil {
		return nil, errorx.Wrap(errors.New("user not found"), errorx.NotExist)
	}

	me, err := service.FindUserByID(ctx, user.ID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	tier, err := service.tierResolver.Tier(ctx, me.ID)
	if err != nil {
		log.Println("me: tier resolve:", err)
		tier = models.TierBase
	}
	me.Tier = tier.String()
	me.IsNewUser = user.IsNewUser

	wallet, _ := service.FindUserWalletByUserID(ctx, me.ID)
	if wallet != nil {
		me.TONWallet = wallet.TONWallet
	}

	return me, nil
}

// ConnectTON verifies a TON Connect proof and binds the wallet to the user.
func (service *ServiceUser) ConnectTON(ctx context.Context, user *models.User, payload *models.TonProof) error {
	if user == nil {
		return errorx.Wrap(errors.New("user not found"), errorx.NotExist)
	}

	userWallet, err := datastore.FindUserWalletByUserID(ctx, service.readonlyPostgresDB, user.ID)
	if err != nil && !strings.Contains(err.Error(), "no rows") {
		return errorx.Wrap(err, errorx.Service)
	}

	if userWallet != nil && userWallet.TONWallet != nil {
		return errorx.Wrap(errors.New("already connected"), errorx.Invalid)
	}

	parsed, err := ton_utils.ParseTonProofMessage(payload)
	if err != nil {
		return errorx.Wrap(errors.New("invalid proof payload"), errorx.Invalid)
	}

	addr, err := tongo.ParseAddress(payload.Address)
	if err != nil {
		return errorx.Wrap(errors.New("invalid account"), errorx.Invalid)
	}

	vs := do.MustInvokeNamed[map[string]string](service.container, "envs")

	check, err := ton_utils.CheckProof(ctx, service.redisDB, addr.ID, vs["TON_APP_DOMAIN"], payload.Nonce, parsed)
	if err != nil {
		log.Println(err)
		return errorx.Wrap(errors.New("proof checking error"), errorx.Invalid)
	}
	if !check {
		return errorx.Wrap(errors.New("invalid proof"), errorx.Invalid)
	}

	tonWallet := addr.ID.String()
	_, err = datastore.UpsertUserWallet(ctx, service.postgresDB, &models.UserWallet{
		UserID:    user.ID,
		TONWallet: &tonWallet,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if datastore.IsUniqueViolation(err) {
			return errorx.Wrap(errors.New("wallet already connected to another account"), errorx.Invalid)
		}
		return errorx.Wrap(err, errorx.Service)
	}

	_ = service.cache.Delete(ctx, DBKeyUserWallet(user.ID))
	_ = service.cache.Delete(ctx, DBKeyUser(user.ID))

	return nil
}
