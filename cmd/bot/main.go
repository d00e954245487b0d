package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"flipclub/internal/datastore"
	"flipclub/internal/datastore/redis_store"
	"flipclub/internal/models"
	"flipclub/internal/pkg"
	"flipclub/internal/pkg/caching"

	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
	tele "gopkg.in/telebot.v3"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

var chatId []int64

const (
	textStart = `🪙 Welcome to Flip Club!

Flip your daily coin, stack entries and win the monthly prize.

🚀 Higher membership tiers get more flips per day.

‼️ Tip: Pin Flip Club at the top of your Telegram for fastest access.
`

	contextRedis      = "context-redis"
	contextRedisCache = "context-redis-cache"
	contextPostgres   = "context-postgres"
)

func main() {
	app := &cli.App{
		Name: "bot-telegram",
		Commands: []*cli.Command{
			commandBot(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandBot() *cli.Command {
	return &cli.Command{
		Name:   "server",
		Action: action,
	}
}

func action(c *cli.Context) error {
	vs, err := env.EnvsRequired(
		"BOT_TOKEN",
	)
	if err != nil {
		return err
	}

	var dbRedis redis.UniversalClient
	var dbRedisCache redis.UniversalClient

	clusterRedisURL := os.Getenv("CLUSTER_REDIS_DB")
	if clusterRedisURL != "" {
		clusterOpts, err := redis.ParseClusterURL(clusterRedisURL)
		if err != nil {
			return err
		}
		dbRedis = redis.NewClusterClient(clusterOpts)
	} else {
		dbRedis, err = db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_DB"),
		})
		if err != nil {
			return err
		}
	}

	clusterCacheRedisURL := os.Getenv("CLUSTER_REDIS_CACHE")
	if clusterCacheRedisURL != "" {
		clusterOpts, err := redis.ParseClusterURL(clusterCacheRedisURL)
		if err != nil {
			return err
		}
		dbRedisCache = redis.NewClusterClient(clusterOpts)
	} else {
		dbRedisCache, err = db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_CACHE"),
		})
		if err != nil {
			log.Fatal(err)
		}
	}

	postgresDb, err := getDb()
	if err != nil {
		return err
	}

	chatIds, _ := datastore.GetConfigByKey(context.Background(), postgresDb, "ADMIN_CHAT_ID")

	if chatIds != nil {
		chatIdStrings := strings.Split(chatIds.Value, ",")

		for _, v := range chatIdStrings {
			vInt, _ := strconv.ParseInt(v, 10, 64)
			chatId = append(chatId, vInt)
		}
	}

	pref := tele.Settings{
		Token:  vs["BOT_TOKEN"],
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatal(err)
		return err
	}

	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Callback() != nil {
				defer c.Respond()
			}

			c.Set(contextPostgres, postgresDb)
			c.Set(contextRedis, dbRedis)
			c.Set(contextRedisCache, dbRedisCache)

			return next(c)
		}
	})

	// static commands
	b.Handle("/start", commandStart)
	b.Handle("/hello", commandHello)
	b.Handle("/me", commandMe)
	b.Handle("/list", commandList)

	// heavy commands - connect to database
	b.Handle("/stats", commandStats)
	b.Handle("/prize", commandPrize)
	b.Handle("/entries", commandEntries)
	b.Handle("/clear_my_cache", commandClearMyCache)
	b.Handle("/notify", func(c tele.Context) error {
		if !AuthRequire(c, chatId) {
			return nil
		}

		postgresDb, err := getContextPostgres(c)
		if err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}

		query := c.Args()
		if len(query) < 2 {
			return c.Send("Please enter the message you want to send!")
		}

		if query[0] != "all" {
			return c.Send("Invalid command")
		}

		if query[1] != "force" {
			return c.Send("Invalid command")
		}

		msg, err := datastore.GetConfigByKey(context.Background(), postgresDb, "NOTIFY_ALL_CONTENT")
		if err != nil {
			return c.Send("Error when get config: " + err.Error())
		}

		currentOffset := 0
		limit := 20
		for {
			users, err := datastore.GetUsersByLimit(context.Background(), postgresDb, limit, currentOffset)
			if err != nil {
				return c.Send("Error when get users: " + err.Error())
			}

			if len(users) == 0 {
				break
			}

			waitgroup := sync.WaitGroup{}

			start := time.Now()

			for _, user := range users {
				sent, err := redis_store.GetBroadcastSent(context.Background(), dbRedis, user.ID)
				if err != nil {
					c.Send("Error when get sent marker: " + err.Error())
				}

				if sent {
					continue
				}

				waitgroup.Add(1)

				go func(user *models.User) {
					defer waitgroup.Done()

					if user == nil {
						return
					}
					u := tele.User{ID: user.ID}
					_, err = b.Send(&u, msg.Value, &tele.SendOptions{
						ParseMode: tele.ModeHTML,
						ReplyMarkup: &tele.ReplyMarkup{
							InlineKeyboard: [][]tele.InlineButton{
								{{Text: "🪙 Flip Now", WebApp: &tele.WebApp{URL: os.Getenv("TELEGRAM_WEB_APP_URL")}}},
								{{Text: "🔊 Lastest news", URL: os.Getenv("TELEGRAM_ANNOUNCEMENT_URL")}},
							},
						},
					})
					if err != nil {
						if user.Username != "" {
							fmt.Printf("Error when send message to username %s - userId: %d: %s\n", user.Username, user.ID, err.Error())
						} else {
							fmt.Printf("Error when send message to user %d: %s\n", user.ID, err.Error())
						}
						return
					}

					err = redis_store.SetBroadcastSent(context.Background(), dbRedis, user.ID)
					if err != nil {
						c.Send("Error when set sent marker: " + err.Error())
					}
				}(user)
			}
			waitgroup.Wait()

			currentOffset += limit

			fmt.Println("Send message to users: ", currentOffset)

			if time.Since(start) < 1*time.Second {
				time.Sleep(1 * time.Second)
			}

			time.Sleep(1 * time.Second)
		}

		fmt.Println("Send message to all users successfully")
		return c.Send("Send message to all users successfully")
	})

	b.Start()

	return nil
}

func getDb() (*bun.DB, error) {
	godotenv.Load()
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(os.Getenv("DB_DSN")),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))

	db := bun.NewDB(sqldb, pgdialect.New())
	return db, nil
}

func AuthRequire(ctx tele.Context, chatId []int64) bool {
	authorized := false
	for _, id := range chatId {
		if ctx.Message().Chat.ID == id {
			authorized = true
			break
		}
	}

	if !authorized {
		ctx.Send("You are not authorized to use this bot here.")
	}

	return authorized
}

func AuthRequireUsers(ctx tele.Context, userIds []int64) bool {
	authorized := false
	for _, userId := range userIds {
		if ctx.Sender().ID == userId {
			authorized = true
			break
		}
	}

	if !authorized {
		ctx.Send("You are not authorized to use this bot here.")
	}

	return authorized
}

func commandStats(c tele.Context) error {
	if !AuthRequire(c, chatId) {
		return nil
	}

	postgresDb, err := getContextPostgres(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	count, err := datastore.CountUsers(context.Background(), postgresDb)
	if err != nil {
		return err
	}

	return c.Send(fmt.Sprintf("Total users: %d", count))
}

func commandPrize(c tele.Context) error {
	if !AuthRequire(c, chatId) {
		return nil
	}

	postgresDb, err := getContextPostgres(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	month := pkg.MonthKey(time.Now())
	if len(c.Args()) >= 1 {
		month = c.Args()[0]
	}
	if !pkg.ValidMonthKey(month) {
		return c.Send("Invalid month, expected YYYY-MM")
	}

	prize, err := datastore.GetMonthlyPrize(context.Background(), postgresDb, month)
	if err != nil {
		return c.Send("Error when get prize: " + err.Error())
	}
	if prize == nil {
		return c.Send(fmt.Sprintf("No prize configured for %s", month))
	}

	msg := fmt.Sprintf("Prize %s: %s\nStatus: %s\nDrawing date: %s", prize.Month, prize.Title, prize.Status, prize.DrawingDate.Format("2006-01-02 15:04:05"))
	if prize.Status == models.PrizeStatusDrawn && prize.WinnerUserID != nil {
		msg += fmt.Sprintf("\nWinner: %d with %d entries", *prize.WinnerUserID, *prize.WinnerEntryCount)
	}

	return c.Send(msg)
}

func commandEntries(c tele.Context) error {
	if !AuthRequire(c, chatId) {
		return nil
	}

	postgresDb, err := getContextPostgres(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	month := pkg.MonthKey(time.Now())
	if len(c.Args()) >= 1 {
		month = c.Args()[0]
	}
	if !pkg.ValidMonthKey(month) {
		return c.Send("Invalid month, expected YYYY-MM")
	}

	ctx := context.Background()
	total, err := datastore.TotalEntries(ctx, postgresDb, month)
	if err != nil {
		return c.Send("Error when get total entries: " + err.Error())
	}

	participants, err := datastore.TotalParticipants(ctx, postgresDb, month)
	if err != nil {
		return c.Send("Error when get participants: " + err.Error())
	}

	return c.Send(fmt.Sprintf("Month %s: %d entries from %d participants", month, total, participants))
}

func commandClearMyCache(c tele.Context) error {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	postgresDb, err := getContextPostgres(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	dbRedisCache, err := getContextRedisCache(c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	testers, _ := datastore.GetConfigByKey(ctx, postgresDb, "TESTERS")
	if testers == nil {
		return c.Send("Testers list not found")
	}

	testerIdStrings := strings.Split(testers.Value, ",")
	var testerIds []int64
	for _, v := range testerIdStrings {
		vInt, _ := strconv.ParseInt(v, 10, 64)
		testerIds = append(testerIds, vInt)
	}

	if !AuthRequireUsers(c, testerIds) {
		return nil
	}

	userID := c.Sender().ID
	user, err := datastore.FindUserByID(ctx, postgresDb, userID)
	if err != nil {
		return err
	}

	if user != nil {
		fmt.Println("User found, deleting...")
		caching.DeleteKeys(ctx, dbRedisCache, fmt.Sprintf("user:%d*", user.ID))
		caching.DeleteKeys(ctx, dbRedisCache, fmt.Sprintf("user_wallet:%d*", user.ID))
	}

	return c.Send(fmt.Sprintf("Your cache has been cleared successfully, %s", c.Sender().Username))
}
