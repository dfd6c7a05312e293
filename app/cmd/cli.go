package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/yfeng-ca/fengdock/app/configs"
	"github.com/yfeng-ca/fengdock/app/db/seeders"
	"github.com/yfeng-ca/fengdock/app/helpers"
	"github.com/yfeng-ca/fengdock/app/models/migrations"
	"github.com/yfeng-ca/fengdock/app/repositories"
	"github.com/yfeng-ca/fengdock/app/services"
	"gorm.io/gorm"
)

func openDB() (*gorm.DB, error) {
	db, err := configs.OpenConnection()
	if err != nil {
		return nil, fmt.Errorf("DB connection failed: %w", err)
	}
	return db, nil
}

func buildWatchService(db *gorm.DB, env configs.ENV) *services.WatchService {
	repo := repositories.NewWatchRepository(db)
	probe := services.NewLoblawsProbe(env)
	notifier := services.NewNotifier(env.NotifyEndpoint)
	return services.NewWatchService(repo, probe, notifier, env.RefreshConcurrency)
}

func RunCli() {
	cmd := &cli.Command{
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Run database migration",
				Action: func(ctx context.Context, c *cli.Command) error {
					db, err := openDB()
					if err != nil {
						return err
					}
					if err := migrations.AutoMigrate(db); err != nil {
						return err
					}
					log.Println("✅ Migration complete")
					return nil
				},
			},
			{
				Name:  "seed-links",
				Usage: "Insert homepage links from the YAML seed file",
				Action: func(ctx context.Context, c *cli.Command) error {
					db, err := openDB()
					if err != nil {
						return err
					}
					inserted, err := seeders.SeedLinks(db, configs.LoadENV.LinkSeedPath)
					if err != nil {
						return err
					}
					log.Printf("✅ Seeded %d links", inserted)
					return nil
				},
			},
			{
				Name:      "hash-secret",
				Usage:     "Print the sha256 hash of a passphrase for PRIVATE_PAGE_PASSWORD_HASH",
				ArgsUsage: "<passphrase>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("usage: hash-secret <passphrase>")
					}
					fmt.Println(helpers.HashSecret(c.Args().First()))
					return nil
				},
			},
			{
				Name:  "generate-keys",
				Usage: "Generate new session authentication and encryption keys for .env",
				Action: func(ctx context.Context, c *cli.Command) error {
					if err := configs.GenerateAndPrintSessionKeys(); err != nil {
						return err
					}
					log.Println("✅ Key generation complete. Please copy the keys to your .env file.")
					return nil
				},
			},
			{
				Name:  "check-links",
				Usage: "Run one link health check pass and exit",
				Action: func(ctx context.Context, c *cli.Command) error {
					db, err := openDB()
					if err != nil {
						return err
					}
					checker := services.NewLinkCheckService(repositories.NewLinkRepository(db))
					return checker.Run(ctx)
				},
			},
			{
				Name:  "refresh-watches",
				Usage: "Re-probe every watched product once and exit",
				Action: func(ctx context.Context, c *cli.Command) error {
					db, err := openDB()
					if err != nil {
						return err
					}
					service := buildWatchService(db, configs.LoadENV)
					outcomes, err := service.RefreshAll(ctx)
					for _, outcome := range outcomes {
						if outcome.Err != nil {
							log.Printf("❌ %s: %v", outcome.ID, outcome.Err)
						} else {
							log.Printf("✅ %s refreshed", outcome.ID)
						}
					}
					return err
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
