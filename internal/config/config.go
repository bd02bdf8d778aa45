package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dukerupert/mealweek/internal/photo"
	"github.com/dukerupert/mealweek/internal/planner"
)

type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string
	Auth      AuthConfig
	Planner   planner.Config
	AI        AIConfig
	Photos    photo.Config
}

type AuthConfig struct {
	JWTSecret string
	Audience  string
}

type AIConfig struct {
	GeminiAPIKey string
	Model        string
}

func (c AIConfig) Enabled() bool {
	return c.GeminiAPIKey != ""
}

// Load reads MEALWEEK_* variables, first loading a .env file when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	} else if err != nil {
		slog.Debug("no .env file found, using environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:      env("MEALWEEK_PORT", "8080"),
		DBPath:    env("MEALWEEK_DB_PATH", "mealweek.db"),
		LogLevel:  env("MEALWEEK_LOG_LEVEL", "info"),
		LogFormat: env("MEALWEEK_LOG_FORMAT", "text"),
		Auth: AuthConfig{
			JWTSecret: getenv("MEALWEEK_JWT_SECRET"),
			Audience:  env("MEALWEEK_JWT_AUDIENCE", "authenticated"),
		},
		AI: AIConfig{
			GeminiAPIKey: getenv("MEALWEEK_GEMINI_API_KEY"),
			Model:        env("MEALWEEK_GEMINI_MODEL", "gemini-2.0-flash"),
		},
		Photos: photo.Config{
			Endpoint:      getenv("MEALWEEK_S3_ENDPOINT"),
			Bucket:        getenv("MEALWEEK_S3_BUCKET"),
			Region:        env("MEALWEEK_S3_REGION", "auto"),
			AccessKey:     getenv("MEALWEEK_S3_ACCESS_KEY"),
			SecretKey:     getenv("MEALWEEK_S3_SECRET_KEY"),
			PublicBaseURL: getenv("MEALWEEK_S3_PUBLIC_URL"),
		},
	}

	size, err := strconv.Atoi(env("MEALWEEK_PLAN_CACHE_SIZE", "256"))
	if err != nil || size <= 0 {
		return nil, fmt.Errorf("MEALWEEK_PLAN_CACHE_SIZE: must be a positive integer")
	}
	cfg.Planner.CacheSize = size

	ttl, err := time.ParseDuration(env("MEALWEEK_PLAN_CACHE_TTL", "2h"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("MEALWEEK_PLAN_CACHE_TTL: must be a positive duration")
	}
	cfg.Planner.CacheTTL = ttl

	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("MEALWEEK_JWT_SECRET is required")
	}
	return cfg, nil
}
