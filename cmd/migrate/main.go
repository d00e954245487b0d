package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"flipclub/internal/datastore"
	"flipclub/internal/models"
	"flipclub/internal/services"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name: "migrate",
		Commands: []*cli.Command{
			commandMigration(),
			commandConfigMigration(),
			commandSetPrize(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandMigration() *cli.Command {
	return &cli.Command{
		Name: "migrate",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableUser(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableUserWallet(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableConfig(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableDailyEntitlement(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableBonusGrant(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableFlipRecord(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableMonthlyEntry(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableMonthlyPrize(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableBalance(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableWithdrawal(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			fmt.Println("Migration success")

			return nil
		},
	}
}

// insert default configs to db
func commandConfigMigration() *cli.Command {
	return &cli.Command{
		Name:        "migrate-config",
		Description: "Insert default configs to db",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			configs := []models.Config{
				{Key: services.CONFIG_SERVER_MODE, Value: "production"},
				{Key: services.CONFIG_FLIP_REWARD_AMOUNT, Value: "10000"},
				{Key: services.CONFIG_MIN_WITHDRAWAL, Value: "50000"},
				{Key: "CRONJOB_TIME_DRAW", Value: "*/10 * * * *"},
				{Key: "CRONJOB_TIME_AUDIT", Value: "30 0 * * *"},
				{Key: services.CONFIG_TEXT_NEW_USER, Value: `🪙 Welcome to Flip Club!

Flip your daily coin, stack entries and win the monthly prize. Higher membership tiers get more flips per day.`},
			}

			for _, config := range configs {
				_, err = db.NewInsert().Model(&config).Exec(ctx)
				if err != nil {
					log.Println(err)
				}
			}

			fmt.Println("Migration success")

			return nil
		},
	}
}

// seed or update a month's prize from the command line
func commandSetPrize() *cli.Command {
	return &cli.Command{
		Name: "set-prize",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "month", Required: true},
			&cli.StringFlag{Name: "title", Required: true},
			&cli.StringFlag{Name: "description"},
			&cli.StringFlag{Name: "image-url"},
			&cli.StringFlag{Name: "drawing-date", Usage: "RFC3339", Required: true},
			&cli.BoolFlag{Name: "activate"},
		},
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			drawingDate, err := time.Parse(time.RFC3339, c.String("drawing-date"))
			if err != nil {
				return err
			}

			serviceDrawing := services.NewServiceDrawingDirect(services.NewPgPrizeStore(db), services.NewPgEntryStore(db))
			prize, err := serviceDrawing.SetMonthlyPrize(ctx, &models.MonthlyPrize{
				Month:       c.String("month"),
				Title:       c.String("title"),
				Description: c.String("description"),
				ImageURL:    c.String("image-url"),
				DrawingDate: drawingDate,
			})
			if err != nil {
				return err
			}

			if c.Bool("activate") && prize.Status == models.PrizeStatusScheduled {
				if err := serviceDrawing.Activate(ctx, prize.Month); err != nil {
					return err
				}
			}

			fmt.Println("Prize saved:", prize.Month, prize.Title)

			return nil
		},
	}
}

func getDb() (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(os.Getenv("DB_DSN")),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))

	db := bun.NewDB(sqldb, pgdialect.New())
	return db, nil
}
