// Package config centralizes environment configuration for the service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultStoreTimeout = 5 * time.Second

type Config struct {
	Server ServerConfig
	Store  StoreConfig
}

type ServerConfig struct {
	Port string
}

// StoreConfig carries the credentials for every rate-limit backend the
// factory knows about. Presence of a complete credential pair is what
// selects a backend; empty pairs are simply skipped.
type StoreConfig struct {
	Redis     RedisConfig
	RedisREST RESTConfig
	KVREST    RESTConfig

	// Timeout bounds every network round-trip a store performs.
	Timeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RESTConfig struct {
	URL   string
	Token string
}

func (c RedisConfig) Configured() bool {
	return c.Addr != ""
}

func (c RESTConfig) Configured() bool {
	return c.URL != "" && c.Token != ""
}

func Load() (Config, error) {
	_ = godotenv.Load()

	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	timeout := defaultStoreTimeout
	if raw := strings.TrimSpace(os.Getenv("RATE_LIMIT_STORE_TIMEOUT_MS")); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			return Config{}, fmt.Errorf("invalid RATE_LIMIT_STORE_TIMEOUT_MS: %q", raw)
		}
		timeout = time.Duration(ms) * time.Millisecond
	}

	return Config{
		Server: ServerConfig{Port: getEnv("SERVER_PORT", "8080")},
		Store: StoreConfig{
			Redis: RedisConfig{
				Addr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
				Password: os.Getenv("REDIS_PASSWORD"),
				DB:       db,
			},
			RedisREST: RESTConfig{
				URL:   strings.TrimSpace(os.Getenv("REDIS_REST_URL")),
				Token: strings.TrimSpace(os.Getenv("REDIS_REST_TOKEN")),
			},
			KVREST: RESTConfig{
				URL:   strings.TrimSpace(os.Getenv("KV_REST_URL")),
				Token: strings.TrimSpace(os.Getenv("KV_REST_TOKEN")),
			},
			Timeout: timeout,
		},
	}, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
