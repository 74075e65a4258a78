package config

import (
	"encoding/base64"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	t.Setenv("SESSION_KEY", key)
	t.Setenv("CSRF_KEY", "not base64!")
	t.Setenv("DB_DRIVER", "POSTGRES")
	t.Setenv("SHOP_PAGE_SIZE", "-3")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("TRUSTED_ORIGINS", " shop.example.com , ,localhost:8080")
	t.Setenv("BASE_URL", "https://shop.example.com/")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	if cfg.DBDriver != DriverPostgres {
		t.Fatalf("driver=%q", cfg.DBDriver)
	}
	if string(cfg.SessionKey) != strings.Repeat("k", 32) {
		t.Fatalf("session key not decoded")
	}
	if len(cfg.CSRFKey) != 32 {
		t.Fatalf("expected random 32 byte csrf key, got %d bytes", len(cfg.CSRFKey))
	}
	if cfg.ShopPageSize != 6 {
		t.Fatalf("invalid page size should fall back to 6, got %d", cfg.ShopPageSize)
	}
	if cfg.RateLimitWindow != 30*time.Second {
		t.Fatalf("window=%s", cfg.RateLimitWindow)
	}
	if len(cfg.TrustedOrigins) != 2 || cfg.TrustedOrigins[0] != "shop.example.com" {
		t.Fatalf("origins=%v", cfg.TrustedOrigins)
	}
	if cfg.BaseURL != "https://shop.example.com" {
		t.Fatalf("base url=%q", cfg.BaseURL)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("level=%v", cfg.LogLevel)
	}
}

func TestLoad_UnknownDriverFallsBackToSQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	if cfg := Load(); cfg.DBDriver != DriverSQLite {
		t.Fatalf("driver=%q", cfg.DBDriver)
	}
}
