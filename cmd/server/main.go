/*
main.go - Application entry point

Wires the SQLite store, the backup gate, the undo service, and the
archiver together, starts the monthly scheduler, and serves HTTP until
interrupted.
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diediegodie/tattoo-studio-system/api"
	"github.com/diediegodie/tattoo-studio-system/backup"
	"github.com/diediegodie/tattoo-studio-system/config"
	"github.com/diediegodie/tattoo-studio-system/extrato"
	"github.com/diediegodie/tattoo-studio-system/store/sqlite"
)

func main() {
	cfg := config.Load()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()
	log.Printf("[Main] Database ready at %s", cfg.DBPath)

	verifier := backup.NewFileVerifier(cfg.BackupDir)
	gate := extrato.NewBackupGate(verifier, cfg.RequireBackup)
	undo := extrato.NewUndoService(store, cfg.UndoRetentionDays)
	resolver := extrato.NewResolver(cfg.Timezone, cfg.MinRunDay, store)
	archiver := extrato.NewArchiver(store, gate, undo, resolver, cfg.BatchSize)

	handler := api.NewHandler(store, archiver, undo)
	router := api.NewRouter(handler)

	scheduler := api.NewMonthlyScheduler(archiver, resolver)
	scheduler.Enabled = cfg.SchedulerEnabled
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		log.Printf("[Main] Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[Main] Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[Main] Shutdown error: %v", err)
	}
	log.Println("[Main] Stopped")
}
