package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/peterh/liner"

	"github.com/ent0n29/gemchat/internal/attach"
	"github.com/ent0n29/gemchat/internal/brain"
	"github.com/ent0n29/gemchat/internal/chat"
	"github.com/ent0n29/gemchat/internal/config"
	"github.com/ent0n29/gemchat/internal/orchestrator"
	"github.com/ent0n29/gemchat/internal/reminder"
)

type inputKind int

const (
	inputText inputKind = iota
	inputBlank
	inputQuit
)

// classifyInput decides what a prompt line means: quit words end the loop,
// blank lines are skipped, everything else is a chat turn.
func classifyInput(line string) (inputKind, string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return inputBlank, ""
	}
	switch strings.ToLower(trimmed) {
	case "quit", "exit":
		return inputQuit, ""
	}
	return inputText, trimmed
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	// The CLI talks to the real model or not at all.
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		log.Fatalf("GEMINI_API_KEY is required")
	}

	ctx := context.Background()
	adapter, _, err := brain.NewAdapter(ctx, brain.Config{
		Mode:              "gemini",
		APIKey:            cfg.GeminiAPIKey,
		Model:             cfg.GeminiModel,
		SystemInstruction: cfg.SystemInstruction,
	})
	if err != nil {
		log.Fatalf("brain adapter init failed: %v", err)
	}

	sessions := chat.NewManager()
	staging := attach.NewStaging()
	store := reminder.NewStore()
	service := reminder.NewService(store, nil, "cli", "")
	extractor := reminder.NewExtractor(reminder.Pattern(cfg.ReminderPattern))
	orch := orchestrator.New(sessions, adapter, extractor, service, staging, nil, nil, cfg.TurnTimeout)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Printf("Chatting with %s. Type quit or exit to leave.\n", cfg.GeminiModel)

	for {
		input, err := line.Prompt("You: ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Println("\nGoodbye!")
			return
		}
		if err != nil {
			log.Fatalf("read input: %v", err)
		}

		kind, text := classifyInput(input)
		switch kind {
		case inputBlank:
			continue
		case inputQuit:
			fmt.Println("Goodbye!")
			return
		}
		line.AppendHistory(text)

		streamed := false
		fmt.Print("Gemini: ")
		res, err := orch.RunTurn(ctx, "", "", text, func(delta string) error {
			streamed = true
			fmt.Print(delta)
			return nil
		})
		if err != nil {
			fmt.Println()
			log.Fatalf("turn failed: %v", err)
		}
		if !streamed {
			fmt.Print(res.AssistantText)
		}
		fmt.Println()
	}
}
