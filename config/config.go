package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv reads .env if present. Real deployments set the environment
// directly, so a missing file is not an error.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}
}

// Config 从环境变量读取
type Config struct {
	RedisAddr  string
	RedisPwd   string
	WebOrigin  string
	SessionTTL time.Duration
	BcryptCost int

	// Seed credentials for the single admin, used once on an empty table.
	BootstrapUsername string
	BootstrapPassword string

	// Identity provider (optional; empty IssuerURL disables the bridge).
	OIDCIssuerURL    string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
}

func Load() Config {
	get := func(k, def string) string {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		return v
	}

	ttl := 24 * time.Hour
	if v := os.Getenv("SESSION_TTL_SECONDS"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			ttl = time.Duration(sec) * time.Second
		}
	}

	cost := 12
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 4 && n <= 31 {
			cost = n
		}
	}

	return Config{
		RedisAddr:         get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:          os.Getenv("REDIS_PASSWORD"),
		WebOrigin:         get("WEB_ORIGIN", "http://localhost:3000"),
		SessionTTL:        ttl,
		BcryptCost:        cost,
		BootstrapUsername: get("BOOTSTRAP_ADMIN_USERNAME", "admin"),
		BootstrapPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		OIDCIssuerURL:     os.Getenv("OIDC_ISSUER_URL"),
		OIDCClientID:      os.Getenv("OIDC_CLIENT_ID"),
		OIDCClientSecret:  os.Getenv("OIDC_CLIENT_SECRET"),
		OIDCRedirectURL:   os.Getenv("OIDC_REDIRECT_URL"),
	}
}
