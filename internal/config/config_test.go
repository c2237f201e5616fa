package config

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE", "MAX_QUEUE_SIZE", "JOB_TTL", "FRAME_WIDTH", "FRAME_HEIGHT", "LOG_LEVEL", "LOG_FORMAT", "ALLOWED_ORIGINS", "PDF_FALLBACK_PDFTOTEXT"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected default port 8090, got %q", cfg.Port)
	}
	if cfg.Store != StoreMemory {
		t.Errorf("expected memory store, got %q", cfg.Store)
	}
	if cfg.FrameWidth != 800 || cfg.FrameHeight != 600 {
		t.Errorf("expected 800x600 frames, got %vx%v", cfg.FrameWidth, cfg.FrameHeight)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h job TTL, got %v", cfg.JobTTL)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("expected wildcard origins, got %v", cfg.AllowedOrigins)
	}
	if !cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback on by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("MAX_QUEUE_SIZE", "-3")
	t.Setenv("JOB_TTL", "5m")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")

	cfg := Load()
	if cfg.Store != StoreSQLite || cfg.SQLitePath != "/tmp/x.db" {
		t.Errorf("unexpected store settings: %q %q", cfg.Store, cfg.SQLitePath)
	}
	if cfg.MaxQueueSize != 16 {
		t.Errorf("expected invalid queue size to fall back to 16, got %d", cfg.MaxQueueSize)
	}
	if cfg.JobTTL != 5*time.Minute {
		t.Errorf("expected 5m TTL, got %v", cfg.JobTTL)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback disabled")
	}
	lvl, err := cfg.SlogLevel()
	if err != nil || lvl != slog.LevelDebug {
		t.Errorf("expected debug level, got %v (%v)", lvl, err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	base := Config{Store: StoreMemory, FrameWidth: 800, FrameHeight: 600, LogFormat: "json", LogLevel: "info"}

	bad := base
	bad.Store = "redis"
	if bad.Validate() == nil {
		t.Error("expected unknown store to fail validation")
	}

	bad = base
	bad.Store = StoreSQLite
	if bad.Validate() == nil {
		t.Error("expected sqlite store without path to fail validation")
	}

	bad = base
	bad.FrameHeight = 0
	if bad.Validate() == nil {
		t.Error("expected zero frame height to fail validation")
	}

	bad = base
	bad.LogFormat = "xml"
	if bad.Validate() == nil {
		t.Error("expected unknown log format to fail validation")
	}

	bad = base
	bad.LogLevel = "loud"
	if bad.Validate() == nil {
		t.Error("expected unknown log level to fail validation")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{LogFormat: "json", LogLevel: "warn"}
	log := cfg.NewLogger(&buf)
	log.Info("hidden")
	log.Warn("shown", "k", "v")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("unexpected json log output %q", out)
	}

	buf.Reset()
	cfg = Config{LogFormat: "text", LogLevel: "info"}
	cfg.NewLogger(&buf).Info("plain")
	if !strings.Contains(buf.String(), "msg=plain") {
		t.Errorf("unexpected text log output %q", buf.String())
	}
}
