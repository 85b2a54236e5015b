package client

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	BaseURL        string
	PollInterval   time.Duration
	RequestTimeout time.Duration
	SearchDebounce time.Duration
	Push           bool
}

func LoadConfig() Config {
	return Config{
		BaseURL:        getEnv("ECHOGUARD_URL", "http://127.0.0.1:5000"),
		PollInterval:   time.Duration(getEnvInt("POLL_INTERVAL_MS", 5000)) * time.Millisecond,
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT", 10)) * time.Second,
		SearchDebounce: time.Duration(getEnvInt("SEARCH_DEBOUNCE_MS", 250)) * time.Millisecond,
		Push:           getEnv("ECHOGUARD_PUSH", "false") == "true",
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}
