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

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/ent0n29/gemchat/internal/attach"
	"github.com/ent0n29/gemchat/internal/brain"
	"github.com/ent0n29/gemchat/internal/chat"
	"github.com/ent0n29/gemchat/internal/config"
	"github.com/ent0n29/gemchat/internal/httpapi"
	"github.com/ent0n29/gemchat/internal/observability"
	"github.com/ent0n29/gemchat/internal/orchestrator"
	"github.com/ent0n29/gemchat/internal/reminder"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	latency := observability.NewLatencyWindow(256)

	ctx := context.Background()
	adapter, brainMode, err := brain.NewAdapter(ctx, brain.Config{
		Mode:              cfg.BrainMode,
		APIKey:            cfg.GeminiAPIKey,
		Model:             cfg.GeminiModel,
		SystemInstruction: cfg.SystemInstruction,
	})
	if err != nil {
		log.Fatalf("brain adapter init failed: %v", err)
	}
	if brainMode == "mock" && strings.EqualFold(cfg.BrainMode, "auto") {
		log.Printf("GEMINI_API_KEY not set; falling back to the mock brain")
	}
	log.Printf("brain adapter: %s (model %s)", brainMode, cfg.GeminiModel)

	userID := cfg.UserID
	if userID == "" {
		userID = uuid.NewString()
		log.Printf("generated user id %s (set APP_USER_ID to pin one)", userID)
	}

	var client *reminder.Client
	if strings.TrimSpace(cfg.BackendURL) != "" {
		client = reminder.NewClient(cfg.BackendURL)
		log.Printf("reminder backend: %s", cfg.BackendURL)
	} else {
		log.Printf("reminder backend: none (local store only)")
	}

	sessions := chat.NewManager()
	staging := attach.NewStaging()
	store := reminder.NewStore()
	service := reminder.NewService(store, client, userID, cfg.NotificationToken)
	extractor := reminder.NewExtractor(reminder.Pattern(cfg.ReminderPattern))

	orch := orchestrator.New(sessions, adapter, extractor, service, staging, metrics, latency, cfg.TurnTimeout)

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	scheduler := reminder.NewScheduler(store, orch.BroadcastReminder)
	scheduler.Start(runCtx, cfg.ReminderPollInterval)

	metrics.ActiveSessions.Set(float64(sessions.Count()))

	api := httpapi.New(cfg, sessions, orch, service, staging, metrics, latency)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
