/*
Package configs loads the relay's configuration from environment variables.

A .env file in the working directory, when present, is loaded first; variables
already set in the process environment take precedence over it.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment string
	Host        string
	Port        int

	// Security Settings
	AllowedOrigins []string

	// Chat Settings
	SweepInterval          time.Duration
	SuppressDuplicateJoins bool

	// File Settings
	StaticDir   string
	UploadDir   string
	MaxUploadMB int64

	// S3 Storage Settings (optional)
	S3BucketName      string
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// UseS3 reports whether uploads go to an S3-compatible bucket instead of UploadDir.
func (c *AppConfig) UseS3() bool {
	return c.S3BucketName != ""
}

// MaxUploadBytes is the upload limit in bytes.
func (c *AppConfig) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// LoadConfig reads an optional .env file and then parses the configuration from
// the environment, applying defaults and validating every value.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	return FromEnv()
}

// FromEnv parses the configuration from the current process environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = getEnv("ENVIRONMENT", "development")
	cfg.Host = getEnv("HOST", "0.0.0.0")

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "3000"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port < 1024 || port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", port, 1024, 65535)
	}
	cfg.Port = port

	// --- Security Settings ---
	cfg.AllowedOrigins = []string{}
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	// --- Chat Settings ---
	cfg.SweepInterval, err = time.ParseDuration(getEnv("SWEEP_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL environment variable: %w", err)
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", cfg.SweepInterval)
	}

	cfg.SuppressDuplicateJoins, err = strconv.ParseBool(getEnv("SUPPRESS_DUPLICATE_JOINS", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid SUPPRESS_DUPLICATE_JOINS environment variable: %w", err)
	}

	// --- File Settings ---
	cfg.StaticDir = getEnv("STATIC_DIR", "public")
	cfg.UploadDir = getEnv("UPLOAD_DIR", "uploads")

	cfg.MaxUploadMB, err = strconv.ParseInt(getEnv("MAX_UPLOAD_MB", "50"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB environment variable: %w", err)
	}
	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", cfg.MaxUploadMB)
	}

	// S3 is optional; once a bucket is named, the rest becomes mandatory.
	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	if cfg.UseS3() {
		cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
		if cfg.S3Endpoint == "" {
			return nil, fmt.Errorf("S3_ENDPOINT environment variable is required when S3_BUCKET_NAME is set")
		}

		cfg.S3Region = getEnv("S3_REGION", "auto")

		cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
		if cfg.S3AccessKeyID == "" {
			return nil, fmt.Errorf("S3_ACCESS_KEY_ID environment variable is required when S3_BUCKET_NAME is set")
		}

		cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")
		if cfg.S3SecretAccessKey == "" {
			return nil, fmt.Errorf("S3_SECRET_ACCESS_KEY environment variable is required when S3_BUCKET_NAME is set")
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
