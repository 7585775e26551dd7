package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
environment: test
location:
  name: Jammu
  latitude: 32.73
  longitude: 74.86
  altitude_m: 327
openweather:
  api_key: file-key
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Meteostat.BaseURL != "https://meteostat.p.rapidapi.com" {
		t.Fatalf("meteostat base url default missing: %q", cfg.Meteostat.BaseURL)
	}
	if cfg.Forecast.MinHistory != 30 {
		t.Fatalf("min_history default %d, want 30", cfg.Forecast.MinHistory)
	}
	if cfg.Forecast.IntervalWidth != 0.8 {
		t.Fatalf("interval_width default %f, want 0.8", cfg.Forecast.IntervalWidth)
	}
	if cfg.Live.TTL != 60*time.Second {
		t.Fatalf("live ttl default %s, want 60s", cfg.Live.TTL)
	}
	if cfg.Risk.HighMM != 90 || cfg.Risk.ModerateMM != 40 {
		t.Fatalf("risk thresholds %f/%f, want 40/90", cfg.Risk.ModerateMM, cfg.Risk.HighMM)
	}
}

func TestLoadMissingLocationFails(t *testing.T) {
	if _, err := Load(writeConfig(t, "environment: test\nopenweather:\n  api_key: k\n")); err == nil {
		t.Fatal("config without location accepted")
	}
}

func TestLoadCollectorRequiresBackend(t *testing.T) {
	body := minimalYAML + `
collector:
  enabled: true
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("collector without backend accepted")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "env-key")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("LoadWithEnv error: %v", err)
	}
	if cfg.OpenWeather.APIKey != "env-key" {
		t.Fatalf("api key %q, env override lost", cfg.OpenWeather.APIKey)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Fatalf("brokers %v, want 2", cfg.Kafka.Brokers)
	}
	if !cfg.Cache.Redis.Enabled || cfg.Cache.Redis.Addr != "redis:6379" {
		t.Fatal("redis env override lost")
	}
}

func TestLoadWithEnvSuppliesSecret(t *testing.T) {
	body := `
environment: test
location:
  name: Jammu
  latitude: 32.73
  longitude: 74.86
`
	t.Setenv("OPENWEATHER_API_KEY", "env-only")

	cfg, err := LoadWithEnv(writeConfig(t, body))
	if err != nil {
		t.Fatalf("LoadWithEnv error: %v", err)
	}
	if cfg.OpenWeather.APIKey != "env-only" {
		t.Fatal("secret from environment not applied before validation")
	}
}
