package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mcdev12/impostor/go/internal/room/repository"
	"github.com/mcdev12/impostor/go/internal/session"
	"github.com/mcdev12/impostor/go/internal/sweeper"
)

const (
	backendMemory   = "memory"
	backendRedis    = "redis"
	backendPostgres = "postgres"
)

type Config struct {
	Port           string
	LogLevel       zerolog.Level
	StoreBackend   string
	RoomTTL        time.Duration
	StoreTimeout   time.Duration
	GraceWindow    time.Duration
	SessionTTL     time.Duration
	TickInterval   time.Duration
	SweepSchedule  string
	WordsFile      string
	NATSURL        string
	AllowedOrigins []string
}

func loadConfig() (*Config, error) {
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	config := &Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       level,
		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", backendMemory)),
		RoomTTL:        getEnvAsDuration("ROOM_TTL", repository.DefaultTTL),
		StoreTimeout:   getEnvAsDuration("STORE_TIMEOUT", 5*time.Second),
		GraceWindow:    getEnvAsDuration("GRACE_WINDOW", 30*time.Second),
		SessionTTL:     getEnvAsDuration("SESSION_TTL", session.DefaultTTL),
		TickInterval:   time.Duration(getEnvAsInt("TICK_INTERVAL_MS", 1000)) * time.Millisecond,
		SweepSchedule:  getEnv("SWEEP_SCHEDULE", sweeper.DefaultSchedule),
		WordsFile:      getEnv("WORDS_FILE", ""),
		NATSURL:        getEnv("NATS_URL", ""),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
	}

	switch config.StoreBackend {
	case backendMemory, backendRedis, backendPostgres:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", config.StoreBackend)
	}
	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
