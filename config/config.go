package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// defaultJWTSecret is the development fallback; Validate rejects it so a
// deployment cannot accidentally run with a guessable signing key.
const defaultJWTSecret = "change-me-in-production"

type Config struct {
	Port            string
	Store           string // "mongo" (default) or "memory" for local development
	MongoURI        string
	DBName          string
	JWTSecret       string
	AdminEmail      string
	AdminPass       string
	GeminiAPIKey    string
	S3Bucket        string
	S3Region        string
	S3AccessKeyID   string
	S3SecretKey     string
	RedisAddr       string
	MaxUploadMB     int64
	ProviderTimeout time.Duration
}

func Load() (*Config, error) {
	maxMB := int64(10)
	if v := getEnv("MAX_UPLOAD_MB", "10"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxMB = n
		}
	}
	providerTimeout := 10 * time.Second
	if v := getEnv("PROVIDER_TIMEOUT_SECONDS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			providerTimeout = time.Duration(n) * time.Second
		}
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Store:           getEnv("STORE", "mongo"),
		MongoURI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:          getEnv("MONGODB_DB", "rarebooks"),
		JWTSecret:       getEnv("JWT_SECRET", defaultJWTSecret),
		AdminEmail:      getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPass:       getEnv("ADMIN_PASSWORD", "password"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		S3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		S3Region:        getEnv("AWS_REGION", "us-east-1"),
		S3AccessKeyID:   getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		MaxUploadMB:     maxMB,
		ProviderTimeout: providerTimeout,
	}, nil
}

// Validate checks the values a persistent deployment must set explicitly.
// The in-memory dev mode downgrades these to warnings in main.
func (c *Config) Validate() error {
	if c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set to a strong secret (generate with: openssl rand -base64 32)")
	}
	if c.AdminPass == "" {
		return errors.New("ADMIN_PASSWORD must be set")
	}
	if c.MongoURI == "" {
		return errors.New("MONGODB_URI must be set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
