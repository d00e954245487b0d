package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"flipclub/internal/datastore"
	"flipclub/internal/datastore/redis_store"
	"flipclub/internal/models"
	"flipclub/internal/pkg"
	"flipclub/internal/services"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/uptrace/bun"
)

// DrawJob periodically tries to draw the current and previous month. A try
// before the drawing date or after the winner is recorded is a cheap no-op,
// so the schedule does not have to be precise.
type DrawJob struct {
	Redis redis.UniversalClient
	Db    *bun.DB

	serviceDrawing *services.ServiceDrawing
	bot            *services.Bot
}

func NewDrawJob(redis redis.UniversalClient, db *bun.DB) *DrawJob {
	bot, _ := services.NewBot(os.Getenv("BOT_TOKEN"))

	return &DrawJob{
		Redis:          redis,
		Db:             db,
		serviceDrawing: services.NewServiceDrawingDirect(services.NewPgPrizeStore(db), services.NewPgEntryStore(db)),
		bot:            bot,
	}
}

func (j *DrawJob) Start(cronRunner *cron.Cron) {
	spec := "*/10 * * * *"
	timeline, err := datastore.GetConfigByKey(context.Background(), j.Db, "CRONJOB_TIME_DRAW")
	if err == nil && timeline != nil && timeline.Value != "" {
		spec = timeline.Value
	}

	_, err = cronRunner.AddFunc(spec, j.runScheduledTask)
	log.Println("Draw Cronjob start at:", time.Now().Format("2006-01-02 15:04:05"), "cron:", spec, err)
}

func (j *DrawJob) runScheduledTask() {
	ctx := context.Background()
	now := time.Now()

	for _, month := range []string{pkg.MonthKey(now.AddDate(0, -1, 0)), pkg.MonthKey(now)} {
		j.tryDraw(ctx, month, now)
	}
}

func (j *DrawJob) tryDraw(ctx context.Context, month string, now time.Time) {
	result, err := j.serviceDrawing.Draw(ctx, month, now)
	if err != nil {
		if !errors.Is(err, services.ErrDrawNotReady) {
			log.Println("draw job:", "month:", month, "err:", err)
		}
		return
	}

	j.announce(ctx, month, result)
}

func (j *DrawJob) announce(ctx context.Context, month string, result *models.DrawResult) {
	first, err := redis_store.MarkWinnerAnnounced(ctx, j.Redis, month)
	if err != nil {
		log.Println("draw job: announce dedupe:", err)
		return
	}
	if !first {
		return
	}

	text := fmt.Sprintf("🏆 The %s prize drawing is done!\n\nYou won with %d entries out of %d. Congratulations!",
		month, result.WinnerEntryCount, result.TotalEntries)
	if err := j.bot.SendMsg(result.WinnerUserID, text); err != nil {
		log.Println("draw job: winner notify:", err)
	}
}
