package server

import (
	"os"
	"strconv"
)

type Config struct {
	Port            int
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
	DBPath          string
	RulesFile       string
	QueryLimit      int
}

func LoadConfig() Config {
	return Config{
		Port:            getEnvInt("PORT", 5000),
		ReadTimeout:     getEnvInt("READ_TIMEOUT", 30),
		WriteTimeout:    getEnvInt("WRITE_TIMEOUT", 30),
		ShutdownTimeout: getEnvInt("SHUTDOWN_TIMEOUT", 10),
		DBPath:          getEnv("DB_PATH", "./db/echoguard.db"),
		RulesFile:       getEnv("RULES_FILE", ""),
		QueryLimit:      getEnvInt("QUERY_LIMIT", 100),
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
