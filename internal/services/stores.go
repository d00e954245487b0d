package services

import (
	"context"
	"time"

	"flipclub/internal/datastore"
	"flipclub/internal/models"

	"github.com/uptrace/bun"
)

// EntitlementStore holds per-day consumption counters and bonus grants.
type EntitlementStore interface {
	DailyConsumption(ctx context.Context, userID int64, day string) (int, error)
	ConsumeDailyUnit(ctx context.Context, userID int64, day string, cap int) (bool, error)
	ActiveBonusUnits(ctx context.Context, userID int64, now time.Time) (int, error)
	ConsumeBonusUnit(ctx context.Context, userID int64, now time.Time) (*models.BonusGrant, error)
	InsertBonusGrant(ctx context.Context, grant *models.BonusGrant) error
	BonusGrantsByUser(ctx context.Context, userID int64) ([]*models.BonusGrant, error)
}

// FlipStore is the append-only flip log.
type FlipStore interface {
	InsertFlipRecord(ctx context.Context, record *models.FlipRecord) error
	CountFlipsByUserMonth(ctx context.Context, userID int64, month string) (int64, error)
	RecountEntriesByMonth(ctx context.Context, month string) ([]models.UserEntries, error)
}

// EntryStore is the per-month entry projection derived from the flip log.
type EntryStore interface {
	IncrementEntry(ctx context.Context, userID int64, month string) error
	EntryCount(ctx context.Context, userID int64, month string) (int64, error)
	TotalEntries(ctx context.Context, month string) (int64, error)
	TotalParticipants(ctx context.Context, month string) (int64, error)
	EntriesByMonth(ctx context.Context, month string) ([]models.UserEntries, error)
}

type PrizeStore interface {
	GetPrize(ctx context.Context, month string) (*models.MonthlyPrize, error)
	UpsertPrize(ctx context.Context, prize *models.MonthlyPrize) (bool, error)
	ActivatePrize(ctx context.Context, month string) (bool, error)
	CancelPrize(ctx context.Context, month string) (bool, error)
	MarkDrawn(ctx context.Context, month string, winnerUserID, winnerEntryCount, totalEntries int64, drawnAt time.Time) (bool, error)
}

type BalanceStore interface {
	Credit(ctx context.Context, userID int64, flipID string, amount int64) (bool, error)
	Balance(ctx context.Context, userID int64) (*models.Balance, error)
	// InsertWithdrawal returns ErrWithdrawalOutstanding when the user already
	// has a non-terminal request.
	InsertWithdrawal(ctx context.Context, request *models.WithdrawalRequest) error
	Outstanding(ctx context.Context, userID int64) (*models.WithdrawalRequest, error)
	WithdrawalByID(ctx context.Context, id string) (*models.WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context, userID int64) ([]*models.WithdrawalRequest, error)
	MarkApproved(ctx context.Context, id string) (bool, error)
	MarkRejected(ctx context.Context, id string, settledBy string) (bool, error)
	MarkPaid(ctx context.Context, id string, txRef string, settledBy string) (bool, error)
}

type pgEntitlementStore struct {
	db *bun.DB
}

func NewPgEntitlementStore(db *bun.DB) EntitlementStore {
	return &pgEntitlementStore{db}
}

func (s *pgEntitlementStore) DailyConsumption(ctx context.Context, userID int64, day string) (int, error) {
	return datastore.GetDailyConsumption(ctx, s.db, userID, day)
}

func (s *pgEntitlementStore) ConsumeDailyUnit(ctx context.Context, userID int64, day string, cap int) (bool, error) {
	return datastore.ConsumeDailyUnit(ctx, s.db, userID, day, cap)
}

func (s *pgEntitlementStore) ActiveBonusUnits(ctx context.Context, userID int64, now time.Time) (int, error) {
	return datastore.ActiveBonusUnits(ctx, s.db, userID, now)
}

func (s *pgEntitlementStore) ConsumeBonusUnit(ctx context.Context, userID int64, now time.Time) (*models.BonusGrant, error) {
	return datastore.ConsumeBonusUnit(ctx, s.db, userID, now)
}

func (s *pgEntitlementStore) InsertBonusGrant(ctx context.Context, grant *models.BonusGrant) error {
	return datastore.InsertBonusGrant(ctx, s.db, grant)
}

func (s *pgEntitlementStore) BonusGrantsByUser(ctx context.Context, userID int64) ([]*models.BonusGrant, error) {
	return datastore.GetBonusGrantsByUser(ctx, s.db, userID)
}

type pgFlipStore struct {
	db *bun.DB
}

func NewPgFlipStore(db *bun.DB) FlipStore {
	return &pgFlipStore{db}
}

func (s *pgFlipStore) InsertFlipRecord(ctx context.Context, record *models.FlipRecord) error {
	return datastore.InsertFlipRecord(ctx, s.db, record)
}

func (s *pgFlipStore) CountFlipsByUserMonth(ctx context.Context, userID int64, month string) (int64, error) {
	return datastore.CountFlipsByUserMonth(ctx, s.db, userID, month)
}

func (s *pgFlipStore) RecountEntriesByMonth(ctx context.Context, month string) ([]models.UserEntries, error) {
	return datastore.RecountEntriesByMonth(ctx, s.db, month)
}

type pgEntryStore struct {
	db *bun.DB
}

func NewPgEntryStore(db *bun.DB) EntryStore {
	return &pgEntryStore{db}
}

func (s *pgEntryStore) IncrementEntry(ctx context.Context, userID int64, month string) error {
	return datastore.IncrementMonthlyEntry(ctx, s.db, userID, month)
}

func (s *pgEntryStore) EntryCount(ctx context.Context, userID int64, month string) (int64, error) {
	return datastore.GetEntryCount(ctx, s.db, userID, month)
}

func (s *pgEntryStore) TotalEntries(ctx context.Context, month string) (int64, error) {
	return datastore.TotalEntries(ctx, s.db, month)
}

func (s *pgEntryStore) TotalParticipants(ctx context.Context, month string) (int64, error) {
	return datastore.TotalParticipants(ctx, s.db, month)
}

func (s *pgEntryStore) EntriesByMonth(ctx context.Context, month string) ([]models.UserEntries, error) {
	return datastore.EntriesByMonth(ctx, s.db, month)
}

type pgPrizeStore struct {
	db *bun.DB
}

func NewPgPrizeStore(db *bun.DB) PrizeStore {
	return &pgPrizeStore{db}
}

func (s *pgPrizeStore) GetPrize(ctx context.Context, month string) (*models.MonthlyPrize, error) {
	return datastore.GetMonthlyPrize(ctx, s.db, month)
}

func (s *pgPrizeStore) UpsertPrize(ctx context.Context, prize *models.MonthlyPrize) (bool, error) {
	return datastore.UpsertMonthlyPrize(ctx, s.db, prize)
}

func (s *pgPrizeStore) ActivatePrize(ctx context.Context, month string) (bool, error) {
	return datastore.ActivateMonthlyPrize(ctx, s.db, month)
}

func (s *pgPrizeStore) CancelPrize(ctx context.Context, month string) (bool, error) {
	return datastore.CancelMonthlyPrize(ctx, s.db, month)
}

func (s *pgPrizeStore) MarkDrawn(ctx context.Context, month string, winnerUserID, winnerEntryCount, totalEntries int64, drawnAt time.Time) (bool, error) {
	return datastore.MarkPrizeDrawn(ctx, s.db, month, winnerUserID, winnerEntryCount, totalEntries, drawnAt)
}

type pgBalanceStore struct {
	db *bun.DB
}

func NewPgBalanceStore(db *bun.DB) BalanceStore {
	return &pgBalanceStore{db}
}

func (s *pgBalanceStore) Credit(ctx context.Context, userID int64, flipID string, amount int64) (bool, error) {
	return datastore.CreditBalance(ctx, s.db, userID, flipID, amount)
}

func (s *pgBalanceStore) Balance(ctx context.Context, userID int64) (*models.Balance, error) {
	return datastore.GetBalance(ctx, s.db, userID)
}

func (s *pgBalanceStore) InsertWithdrawal(ctx context.Context, request *models.WithdrawalRequest) error {
	err := datastore.InsertWithdrawalRequest(ctx, s.db, request)
	if err != nil && datastore.IsUniqueViolation(err) {
		return ErrWithdrawalOutstanding
	}

	return err
}

func (s *pgBalanceStore) Outstanding(ctx context.Context, userID int64) (*models.WithdrawalRequest, error) {
	return datastore.OutstandingWithdrawal(ctx, s.db, userID)
}

func (s *pgBalanceStore) WithdrawalByID(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	return datastore.GetWithdrawalByID(ctx, s.db, id)
}

func (s *pgBalanceStore) ListWithdrawals(ctx context.Context, userID int64) ([]*models.WithdrawalRequest, error) {
	return datastore.ListWithdrawalsByUser(ctx, s.db, userID)
}

func (s *pgBalanceStore) MarkApproved(ctx context.Context, id string) (bool, error) {
	return datastore.MarkWithdrawalApproved(ctx, s.db, id)
}

func (s *pgBalanceStore) MarkRejected(ctx context.Context, id string, settledBy string) (bool, error) {
	return datastore.MarkWithdrawalRejected(ctx, s.db, id, settledBy)
}

func (s *pgBalanceStore) MarkPaid(ctx context.Context, id string, txRef string, settledBy string) (bool, error) {
	return datastore.MarkWithdrawalPaid(ctx, s.db, id, txRef, settledBy)
}
