package services

import (
	"context"
	"log"

	"flipclub/internal/datastore/redis_store"
	"flipclub/internal/models"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
)

// ServiceEntry reads the monthly entry projection and audits it against the
// flip log.
type ServiceEntry struct {
	container *do.Injector
	redisDB   redis.UniversalClient

	entryStore EntryStore
	flipStore  FlipStore
}

type AuditMismatch struct {
	UserID    int64 `json:"user_id"`
	Recounted int64 `json:"recounted"`
	Projected int64 `json:"projected"`
}

type AuditResult struct {
	Month      string          `json:"month"`
	Users      int             `json:"users"`
	Mismatches []AuditMismatch `json:"mismatches"`
}

func NewServiceEntry(container *do.Injector) (*ServiceEntry, error) {
	db, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	entryStore, err := do.Invoke[EntryStore](container)
	if err != nil {
		return nil, err
	}

	flipStore, err := do.Invoke[FlipStore](container)
	if err != nil {
		return nil, err
	}

	return &ServiceEntry{container, db, entryStore, flipStore}, nil
}

// NewServiceEntryDirect wires the service without a container.
func NewServiceEntryDirect(entryStore EntryStore, flipStore FlipStore) *ServiceEntry {
	return &ServiceEntry{nil, nil, entryStore, flipStore}
}

func (service *ServiceEntry) EntriesFor(ctx context.Context, userID int64, month string) (int64, error) {
	count, err := service.entryStore.EntryCount(ctx, userID, month)
	if err != nil {
		return 0, errorx.Wrap(err, errorx.Service)
	}

	return count, nil
}

// MonthStats returns the aggregate entry counts, served from a short-lived
// redis snapshot when one exists.
func (service *ServiceEntry) MonthStats(ctx context.Context, month string) (*models.MonthStats, error) {
	if service.redisDB != nil {
		stats, err := redis_store.GetMonthStats(ctx, service.redisDB, month)
		if err == nil && stats != nil {
			return stats, nil
		}
	}

	total, err := service.entryStore.TotalEntries(ctx, month)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	participants, err := service.entryStore.TotalParticipants(ctx, month)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	stats := &models.MonthStats{
		Month:             month,
		TotalEntries:      total,
		TotalParticipants: participants,
	}

	if service.redisDB != nil {
		if err := redis_store.SetMonthStats(ctx, service.redisDB, stats); err != nil {
			log.Println("entry: stats snapshot:", err)
		}
	}

	return stats, nil
}

// Audit recounts the flip log and compares it to the projection. Any drift is
// reported and surfaced as a ledger inconsistency; the projection is never
// silently rewritten.
func (service *ServiceEntry) Audit(ctx context.Context, month string) (*AuditResult, error) {
	recounted, err := service.flipStore.RecountEntriesByMonth(ctx, month)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	projected, err := service.entryStore.EntriesByMonth(ctx, month)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	projectedByUser := make(map[int64]int64, len(projected))
	for _, p := range projected {
		projectedByUser[p.UserID] = p.EntryCount
	}

	result := &AuditResult{Month: month}
	seen := make(map[int64]bool, len(recounted))
	for _, r := range recounted {
		seen[r.UserID] = true
		if projectedByUser[r.UserID] != r.EntryCount {
			result.Mismatches = append(result.Mismatches, AuditMismatch{
				UserID:    r.UserID,
				Recounted: r.EntryCount,
				Projected: projectedByUser[r.UserID],
			})
		}
	}
	for _, p := range projected {
		if !seen[p.UserID] && p.EntryCount != 0 {
			result.Mismatches = append(result.Mismatches, AuditMismatch{
				UserID:    p.UserID,
				Recounted: 0,
				Projected: p.EntryCount,
			})
		}
	}
	result.Users = len(seen)

	if len(result.Mismatches) > 0 {
		for _, m := range result.Mismatches {
			log.Println("entry audit mismatch:", "month:", month, "user:", m.UserID, "recounted:", m.Recounted, "projected:", m.Projected)
		}
		return result, errorx.Wrap(ErrLedgerInconsistency, errorx.Other)
	}

	return result, nil
}
