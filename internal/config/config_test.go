package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	"PSYCHE_PORT", "PSYCHE_METRICS_PORT", "PSYCHE_ADMIN_TOKEN",
	"PSYCHE_DATABASE_URL", "PSYCHE_HERMES_URL", "PSYCHE_REDIS_ADDR",
	"PSYCHE_REDIS_PASSWORD", "PSYCHE_RESULTS_TTL_SECONDS", "PSYCHE_DIRECTORY_URL",
	"PSYCHE_DIRECTORY_TOKEN", "PSYCHE_EXPORTER_URL", "PSYCHE_LOG_LEVEL", "PSYCHE_LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8700 {
		t.Errorf("expected port 8700, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected metrics port 8701, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.RateLimitPerMinute != 120 {
		t.Errorf("expected rate limit 120, got %d", cfg.Server.RateLimitPerMinute)
	}
	if cfg.Hermes.URL != "nats://localhost:4222" {
		t.Errorf("expected nats URL, got %s", cfg.Hermes.URL)
	}
	if cfg.Database.URL != "" || cfg.Database.AutoMigrate {
		t.Errorf("expected no database by default, got %+v", cfg.Database)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("expected redis disabled by default, got %s", cfg.Redis.Addr)
	}
	if cfg.ResultsTTL() != 5*time.Minute {
		t.Errorf("expected ResultsTTL 5m, got %v", cfg.ResultsTTL())
	}
	if cfg.Report.ActionLabel != "Action" {
		t.Errorf("expected action label 'Action', got '%s'", cfg.Report.ActionLabel)
	}
	if cfg.Report.DefaultTemplateName != "Default report" {
		t.Errorf("unexpected default template name '%s'", cfg.Report.DefaultTemplateName)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format 'json', got '%s'", cfg.Logging.Format)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "psyche.yaml")
	data := []byte(`
server:
  port: 9100
database:
  url: postgres://localhost/psyche
  auto_migrate: true
redis:
  addr: localhost:6379
  ttl_seconds: 60
report:
  action_label: "Ação"
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("expected port 9100, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("unset keys keep defaults, got metrics port %d", cfg.Server.MetricsPort)
	}
	if !cfg.Database.AutoMigrate {
		t.Error("expected auto_migrate true")
	}
	if cfg.ResultsTTL() != time.Minute {
		t.Errorf("expected 1m TTL, got %v", cfg.ResultsTTL())
	}
	if cfg.Report.ActionLabel != "Ação" {
		t.Errorf("unexpected action label %q", cfg.Report.ActionLabel)
	}
	if cfg.Report.DefaultTemplateName != "Default report" {
		t.Errorf("unexpected default template name %q", cfg.Report.DefaultTemplateName)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PSYCHE_PORT", "9000")
	t.Setenv("PSYCHE_METRICS_PORT", "9001")
	t.Setenv("PSYCHE_ADMIN_TOKEN", "secret-token")
	t.Setenv("PSYCHE_DATABASE_URL", "postgres://localhost/psyche_test")
	t.Setenv("PSYCHE_HERMES_URL", "nats://nats:4222")
	t.Setenv("PSYCHE_REDIS_ADDR", "redis:6379")
	t.Setenv("PSYCHE_REDIS_PASSWORD", "redis-secret")
	t.Setenv("PSYCHE_RESULTS_TTL_SECONDS", "30")
	t.Setenv("PSYCHE_DIRECTORY_URL", "http://directory:8080")
	t.Setenv("PSYCHE_DIRECTORY_TOKEN", "dir-secret")
	t.Setenv("PSYCHE_EXPORTER_URL", "http://exporter:8090")
	t.Setenv("PSYCHE_LOG_LEVEL", "debug")
	t.Setenv("PSYCHE_LOG_FORMAT", "text")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 9001 {
		t.Errorf("expected metrics port 9001, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.AdminToken != "secret-token" {
		t.Errorf("expected admin token 'secret-token', got '%s'", cfg.Server.AdminToken)
	}
	if cfg.Database.URL != "postgres://localhost/psyche_test" {
		t.Errorf("expected database URL, got '%s'", cfg.Database.URL)
	}
	if cfg.Hermes.URL != "nats://nats:4222" {
		t.Errorf("expected hermes URL, got '%s'", cfg.Hermes.URL)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.Redis.Password != "redis-secret" {
		t.Errorf("unexpected redis config %+v", cfg.Redis)
	}
	if cfg.ResultsTTL() != 30*time.Second {
		t.Errorf("expected 30s TTL, got %v", cfg.ResultsTTL())
	}
	if cfg.Directory.URL != "http://directory:8080" || cfg.Directory.Token != "dir-secret" {
		t.Errorf("unexpected directory config %+v", cfg.Directory)
	}
	if cfg.Exporter.URL != "http://exporter:8090" {
		t.Errorf("expected exporter URL, got '%s'", cfg.Exporter.URL)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}
}
