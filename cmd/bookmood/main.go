package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookmood/internal/config"
	"bookmood/internal/http/handlers"
	applog "bookmood/internal/log"
	"bookmood/internal/repos"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	sink := applog.Setup(cfg.LogFile)
	defer sink.Close()

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if cfg.SeedDemo {
		if err := repos.SeedDemo(db, cfg.BcryptCost); err != nil {
			log.Fatal(err)
		}
		log.Printf("[seed] demo users ready")
	}

	app := handlers.NewApp(handlers.NewDeps(db, cfg))

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Printf("[shutdown] draining connections")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("[shutdown] %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
