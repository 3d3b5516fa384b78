package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"food-dashboard/internal/audit"
	"food-dashboard/internal/auth"
	"food-dashboard/internal/backup"
	"food-dashboard/internal/config"
	"food-dashboard/internal/database"
	"food-dashboard/internal/metrics"
	"food-dashboard/internal/records"
	"food-dashboard/internal/server"

	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	store, err := database.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("open data dir: %v", err)
	}

	var recorder audit.Recorder = audit.LogRecorder{}
	if cfg.AuditDatabaseDSN != "" {
		db, err := database.OpenAuditDB(cfg.AuditDatabaseDSN)
		if err != nil {
			log.Fatalf("audit database: %v", err)
		}
		recorder = audit.NewDBRecorder(db)
	}

	ctx := context.Background()
	sink, err := backup.Open(ctx, cfg.Backup)
	if err != nil {
		log.Fatalf("backup sink: %v", err)
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	svc := &records.Service{
		Store:   store,
		Audit:   recorder,
		Metrics: m,
		Backup:  sink,
	}

	app := server.New(server.Deps{
		Records: svc,
		Metrics: m,
		Gate:    auth.NewGate(cfg.AdminPasswordHash, cfg.JWTSecret),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("shutdown")
		}
	}()

	log.WithFields(log.Fields{
		"port":     cfg.HTTPPort,
		"data_dir": store.Dir(),
	}).Info("food dashboard listening")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
