package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yfeng-ca/fengdock/app/cmd"
	"github.com/yfeng-ca/fengdock/app/configs"
	"github.com/yfeng-ca/fengdock/app/db/seeders"
	"github.com/yfeng-ca/fengdock/app/models/migrations"
	"github.com/yfeng-ca/fengdock/app/repositories"
	"github.com/yfeng-ca/fengdock/app/routes"
	"github.com/yfeng-ca/fengdock/app/services"
	"github.com/yfeng-ca/fengdock/app/workers"
)

func main() {
	env := configs.LoadEnv()
	if len(os.Args) > 1 {
		cmd.RunCli()
		return
	}

	db, err := configs.OpenConnection()
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	log.Println("✅ Database connected.")

	if err := migrations.AutoMigrate(db); err != nil {
		log.Fatal("Migration failed:", err)
	}

	if inserted, err := seeders.SeedLinks(db, env.LinkSeedPath); err != nil {
		log.Printf("Link seeding failed: %v", err)
	} else if inserted > 0 {
		log.Printf("✅ Seeded %d links", inserted)
	}

	linkRepo := repositories.NewLinkRepository(db)
	watchRepo := repositories.NewWatchRepository(db)
	probe := services.NewLoblawsProbe(env)
	notifier := services.NewNotifier(env.NotifyEndpoint)
	watchService := services.NewWatchService(watchRepo, probe, notifier, env.RefreshConcurrency)
	linkCheck := services.NewLinkCheckService(linkRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := workers.New(
		linkCheck,
		watchService,
		time.Duration(env.LinkCheckIntervalMinutes)*time.Minute,
		env.WatchRefreshCron,
	)
	if err := scheduler.Start(ctx); err != nil {
		log.Fatal("Scheduler failed to start:", err)
	}

	router := routes.NewRouter(db, env, watchService)
	server := http.Server{
		Addr:    env.Port,
		Handler: router,
	}

	go func() {
		log.Printf("🚀 Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	cancel()
	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	log.Println("Bye.")
}
