package config

import (
	"os"
	"time"
)

// Config holds everything the service reads from the environment. Loaded once
// in main; handlers receive it by value and never touch os.Getenv themselves.
type Config struct {
	Port        string
	DatabaseURL string
	AppEnv      string
	JWTSecret   string
	JWTTTL      time.Duration
	UploadDir   string
	LogFormat   string
	LogLevel    string
}

// Load reads the environment with sane defaults. Call godotenv.Load first.
func Load() Config {
	cfg := Config{
		Port:        getenv("PORT", "3000"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		AppEnv:      getenv("APP_ENV", "development"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTTTL:      7 * 24 * time.Hour,
		UploadDir:   getenv("UPLOAD_DIR", "./uploads"),
		LogFormat:   getenv("LOG_FORMAT", "text"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
	}
	if raw := os.Getenv("JWT_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.JWTTTL = d
		}
	}
	return cfg
}

// Production reports whether the service runs in production mode; error
// responses hide internals and a missing JWT secret is fatal at boot.
func (c Config) Production() bool { return c.AppEnv == "production" }

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
