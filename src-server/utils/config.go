package utils

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	port string

	dataDir      string
	badgeDir     string
	badgeBaseURL string

	metricCollectionInterval time.Duration
}

func NewConfig() *Config {
	return &Config{
		port: func() string {
			port := os.Getenv("PORT")
			if port == "" {
				port = "8080"
			}
			slog.Debug("env", "PORT", port)
			return port
		}(),

		dataDir: func() string {
			dataDir := os.Getenv("DATA_DIR")
			if dataDir == "" {
				slog.Warn("DATA_DIR is not set, using ./data")
				dataDir = "./data"
			}
			if err := os.MkdirAll(dataDir, 0o755); err != nil {
				slog.Error("can't create DATA_DIR", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "DATA_DIR", dataDir)
			return filepath.Clean(dataDir)
		}(),
		badgeDir: func() string {
			badgeDir := os.Getenv("BADGE_DIR")
			if badgeDir == "" {
				slog.Warn("BADGE_DIR is not set, using ./qrcodes")
				badgeDir = "./qrcodes"
			}
			if err := os.MkdirAll(badgeDir, 0o755); err != nil {
				slog.Error("can't create BADGE_DIR", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "BADGE_DIR", badgeDir)
			return filepath.Clean(badgeDir)
		}(),
		badgeBaseURL: func() string {
			badgeBaseURL := os.Getenv("BADGE_BASE_URL")
			if badgeBaseURL == "" {
				slog.Warn("BADGE_BASE_URL is not set, using the default check-in page")
			}
			slog.Debug("env", "BADGE_BASE_URL", badgeBaseURL)
			return badgeBaseURL
		}(),

		metricCollectionInterval: func() time.Duration {
			metricCollectionInterval := os.Getenv("METRIC_COLLECTION_INTERVAL")
			if metricCollectionInterval == "" {
				metricCollectionInterval = "10s"
			}
			duration, err := time.ParseDuration(metricCollectionInterval)
			if err != nil {
				slog.Error("invalid METRIC_COLLECTION_INTERVAL", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "METRIC_COLLECTION_INTERVAL", metricCollectionInterval, "duration", duration)
			return duration
		}(),
	}
}

// Get PORT env, default to 8080
func (c *Config) GetPort() string {
	return c.port
}

// Get DATA_DIR env, default to ./data
func (c *Config) GetDataDir() string {
	return c.dataDir
}

// Get BADGE_DIR env, default to ./qrcodes
func (c *Config) GetBadgeDir() string {
	return c.badgeDir
}

// Get BADGE_BASE_URL env; blank means the badge package default
func (c *Config) GetBadgeBaseURL() string {
	return c.badgeBaseURL
}

// Get METRIC_COLLECTION_INTERVAL env, default to 10s
func (c *Config) GetMetricCollectionInterval() time.Duration {
	return c.metricCollectionInterval
}
