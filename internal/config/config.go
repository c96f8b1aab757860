package config

import (
	"os"
	"time"
)

// Config holds everything read from the environment at process start.
// Nothing here is re-read after boot.
type Config struct {
	DatabaseURL string
	JWTSecret   string
	JWTTTL      time.Duration
	GeminiKey   string
	StorageDir  string
	HTTPPort    string

	// Optional first-admin seed
	AdminEmail    string
	AdminPassword string
}

func Load() Config {
	cfg := Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTTTL:        30 * time.Minute,
		GeminiKey:     os.Getenv("GOOGLE_API_KEY"),
		StorageDir:    os.Getenv("STORAGE_DIR"),
		HTTPPort:      os.Getenv("HTTP_PORT"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
	if s := os.Getenv("JWT_EXPIRES_IN"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.JWTTTL = d
		}
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = "storage/uploads"
	}
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = "8080"
	}
	return cfg
}
