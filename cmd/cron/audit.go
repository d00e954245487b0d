package main

import (
	"context"
	"log"
	"time"

	"flipclub/internal/datastore"
	"flipclub/internal/pkg"
	"flipclub/internal/services"

	"github.com/robfig/cron/v3"
	"github.com/uptrace/bun"
)

// AuditJob recounts the flip log against the entry projection every night.
// Any drift is logged loudly; it is never repaired automatically.
type AuditJob struct {
	Db *bun.DB

	serviceEntry *services.ServiceEntry
}

func NewAuditJob(db *bun.DB) *AuditJob {
	return &AuditJob{
		Db:           db,
		serviceEntry: services.NewServiceEntryDirect(services.NewPgEntryStore(db), services.NewPgFlipStore(db)),
	}
}

func (j *AuditJob) Start(cronRunner *cron.Cron) {
	spec := "30 0 * * *"
	timeline, err := datastore.GetConfigByKey(context.Background(), j.Db, "CRONJOB_TIME_AUDIT")
	if err == nil && timeline != nil && timeline.Value != "" {
		spec = timeline.Value
	}

	_, err = cronRunner.AddFunc(spec, j.runScheduledTask)
	log.Println("Audit Cronjob start at:", time.Now().Format("2006-01-02 15:04:05"), "cron:", spec, err)
}

func (j *AuditJob) runScheduledTask() {
	ctx := context.Background()
	month := pkg.MonthKey(time.Now())

	result, err := j.serviceEntry.Audit(ctx, month)
	if err != nil {
		log.Println("audit job:", "month:", month, "err:", err)
		return
	}

	log.Println("audit job ok:", "month:", month, "users:", result.Users)
}
