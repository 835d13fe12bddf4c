// ABOUTME: Entry point for the sales trainer voice client
// ABOUTME: Parses CLI flags and starts the trainer application
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/moonai/salestrainer-go/internal/app"
	"github.com/moonai/salestrainer-go/internal/config"
	"github.com/moonai/salestrainer-go/pkg/session"
)

var (
	backendURL   = flag.String("backend", "", "Backend base URL (default: BACKEND_URL or http://localhost:8000)")
	managerName  = flag.String("name", "", "Manager name for the session form")
	clientDesc   = flag.String("client", "", "Description of the simulated client")
	difficulty   = flag.String("difficulty", "", "Difficulty level (easy, medium, hard)")
	clientType   = flag.String("client-type", "", "Client persona type")
	firstMessage = flag.String("first-message", "", "Opening line spoken by the simulated client")
	playbackRate = flag.Float64("playback-rate", 0, "Agent audio playback speed, minimum 1.0")
	logFile      = flag.String("log-file", "", "Log file path")
	noTUI        = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Flags override the environment
	if *backendURL != "" {
		cfg.BackendURL = *backendURL
	}
	if *managerName != "" {
		cfg.ManagerName = *managerName
	}
	if *playbackRate != 0 {
		if *playbackRate < 1.0 {
			log.Fatalf("Invalid playback rate %.2f: must be at least 1.0", *playbackRate)
		}
		cfg.PlaybackRate = *playbackRate
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *noTUI {
		cfg.Headless = true
	}

	if cfg.ManagerName == "" {
		log.Fatalf("Manager name is required: pass -name or set MANAGER_NAME")
	}

	// Set up logging
	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if cfg.Headless {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
		log.Printf("Starting sales trainer for %s (headless)", cfg.ManagerName)
	} else {
		// TUI mode: log only to file
		log.SetOutput(f)
	}

	form := session.Form{
		ManagerName:       cfg.ManagerName,
		ClientDescription: *clientDesc,
		DifficultyLevel:   *difficulty,
		ClientType:        *clientType,
		FirstMessage:      *firstMessage,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Printf("Shutdown signal received")
		cancel()
	}()

	trainer := app.New(cfg, form)
	if err := trainer.Run(ctx); err != nil {
		log.Fatalf("Trainer failed: %v", err)
	}

	log.Printf("Trainer stopped")
}
