package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth. Empty disables bearer-token auth on /api routes.
	APIKey string

	// Origins allowed to open the UI WebSocket. "*" allows any.
	AllowedOrigins []string

	// Host document store
	Store      string // "memory" or "sqlite"
	SQLitePath string
	SeedFile   string
	Title      string

	// Host limits (memory store only)
	MaxPages    int
	MaxChildren int

	// Generated frame canvas
	FrameWidth  float64
	FrameHeight float64

	// Invocation queue
	MaxQueueSize int
	JobTTL       time.Duration

	// Upload limits
	MaxUploadBytes int64

	// Document loading
	PDFFallbackPdftotext bool

	// Logging
	LogLevel  string
	LogFormat string
}

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey:         os.Getenv("SCAFFOLD_API_KEY"),
		AllowedOrigins: envList("ALLOWED_ORIGINS", []string{"*"}),

		Store:      strings.ToLower(envOr("STORE", StoreMemory)),
		SQLitePath: envOr("SQLITE_PATH", "docscaffold.db"),
		SeedFile:   os.Getenv("SEED_FILE"),
		Title:      envOr("DOCUMENT_TITLE", "Untitled"),

		MaxPages:    envInt("MAX_PAGES", 0),
		MaxChildren: envInt("MAX_CHILDREN", 0),

		FrameWidth:  envFloat("FRAME_WIDTH", 800),
		FrameHeight: envFloat("FRAME_HEIGHT", 600),

		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 16),
		JobTTL:       envDuration("JOB_TTL", 1*time.Hour),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		LogLevel:  strings.ToLower(envOr("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(envOr("LOG_FORMAT", "json")),
	}

	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}
	if cfg.MaxPages < 0 {
		cfg.MaxPages = 0
	}
	if cfg.MaxChildren < 0 {
		cfg.MaxChildren = 0
	}

	return cfg
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE=sqlite")
		}
	default:
		return fmt.Errorf("STORE must be %q or %q, got %q", StoreMemory, StoreSQLite, c.Store)
	}
	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		return fmt.Errorf("FRAME_WIDTH and FRAME_HEIGHT must be positive")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// NewLogger builds the structured logger described by LOG_FORMAT and
// LOG_LEVEL. Call Validate first; an unknown level falls back to info.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	lvl, _ := c.SlogLevel()
	opts := &slog.HandlerOptions{Level: lvl}
	if c.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
