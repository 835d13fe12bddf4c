// ABOUTME: Client configuration loaded from environment variables
// ABOUTME: Reads an optional .env file and applies sensible defaults
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all client configuration
type Config struct {
	BackendURL   string  // Base URL of the rehearsal backend
	ManagerName  string  // Default manager name for the session form
	PlaybackRate float64 // Agent audio playback speed, 1.0 = natural
	LogFile      string  // Path for the session log file
	Headless     bool    // Run without the terminal UI
}

// Load reads configuration from environment variables with defaults
func Load() (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	config := &Config{
		BackendURL:   "http://localhost:8000",
		PlaybackRate: 1.0,
		LogFile:      "salestrainer.log",
	}

	// Optional: BACKEND_URL
	if url := os.Getenv("BACKEND_URL"); url != "" {
		config.BackendURL = url
	}

	// Optional: MANAGER_NAME
	if name := os.Getenv("MANAGER_NAME"); name != "" {
		config.ManagerName = name
	}

	// Optional: PLAYBACK_RATE
	if rate := os.Getenv("PLAYBACK_RATE"); rate != "" {
		r, err := strconv.ParseFloat(rate, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid PLAYBACK_RATE: %w", err)
		}
		if r < 1.0 {
			return nil, fmt.Errorf("invalid PLAYBACK_RATE: must be at least 1.0")
		}
		config.PlaybackRate = r
	}

	// Optional: LOG_FILE
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		config.LogFile = logFile
	}

	// Optional: HEADLESS ("1" or "true")
	if headless := os.Getenv("HEADLESS"); headless != "" {
		h, err := strconv.ParseBool(headless)
		if err != nil {
			return nil, fmt.Errorf("invalid HEADLESS: %w", err)
		}
		config.Headless = h
	}

	return config, nil
}
