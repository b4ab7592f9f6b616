package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ent0n29/gemchat/internal/config"
	"github.com/ent0n29/gemchat/internal/reminderback"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	store, err := reminderback.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("reminder store init failed: %v", err)
	}
	defer store.Close()
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Printf("reminder store: in-memory")
	} else {
		log.Printf("reminder store: postgres")
	}

	srv := reminderback.NewServer(store)

	done := make(chan struct{})
	srv.StartSweeper(done, cfg.ReminderPollInterval)

	httpServer := &http.Server{
		Addr:    cfg.BackendBindAddr,
		Handler: srv.Router(),
	}

	go func() {
		log.Printf("reminderd listening on %s", cfg.BackendBindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	close(done)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
