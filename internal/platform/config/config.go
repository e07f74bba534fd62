// Package config loads service configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the tunables consumed by the authentication core and the
// surrounding wiring. Defaults mirror the security policy: 5 attempts,
// 15 minute lockout, 1800 second reset-token lifetime.
type Config struct {
	Port             string        // HTTP listen port
	DatabaseURL      string        // postgres URL or SQLite path
	RedisAddr        string        // empty disables the audit read cache
	SecretKey        string        // process-wide reset-token signing secret (required)
	JWTSecret        string        // session JWT signing secret
	MaxLoginAttempts int           // consecutive failures before lockout
	LockoutDuration  time.Duration // how long a lockout lasts
	ResetTokenMaxAge time.Duration // max age of a password-reset token
	SessionTokenTTL  time.Duration // session JWT lifetime
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() Config {
	return Config{
		Port:             envOr("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		SecretKey:        os.Getenv("SECRET_KEY"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		MaxLoginAttempts: envInt("MAX_LOGIN_ATTEMPTS", 5),
		LockoutDuration:  time.Duration(envInt("LOCKOUT_DURATION_MINUTES", 15)) * time.Minute,
		ResetTokenMaxAge: time.Duration(envInt("RESET_TOKEN_MAX_AGE_SECONDS", 1800)) * time.Second,
		SessionTokenTTL:  time.Duration(envInt("SESSION_TOKEN_TTL_MINUTES", 60)) * time.Minute,
	}
}

// envOr returns the environment variable's value or a default when unset.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt returns the environment variable parsed as int, or a default when
// unset or unparsable.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
