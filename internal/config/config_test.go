package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"akkord/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
app:
  name: "akkord"
database:
  path: "test.db"
reservation:
  ttl: "12h"
  sweep_interval: "30s"
api:
  enabled: true
  auth:
    api_keys:
      - key: "secret"
        name: "ops"
        permissions: ["admin"]
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "akkord" {
		t.Errorf("expected app name akkord, got %s", cfg.App.Name)
	}
	if cfg.Reservation.TTLDuration() != 12*time.Hour {
		t.Errorf("expected ttl 12h, got %s", cfg.Reservation.TTLDuration())
	}
	if cfg.Reservation.SweepIntervalDuration() != 30*time.Second {
		t.Errorf("expected sweep interval 30s, got %s", cfg.Reservation.SweepIntervalDuration())
	}
	if len(cfg.API.Auth.APIKeys) != 1 || cfg.API.Auth.APIKeys[0].Name != "ops" {
		t.Errorf("expected 1 api key named ops")
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("TEST_LEDGER_KEY", "from-env")

	yamlContent := `
database:
  path: "test.db"
api:
  enabled: true
  auth:
    api_keys:
      - key: "${TEST_LEDGER_KEY}"
        name: "storefront"
        permissions: ["read:items"]
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.API.Auth.APIKeys[0].Key != "from-env" {
		t.Errorf("expected expanded key from-env, got %s", cfg.API.Auth.APIKeys[0].Key)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Database:    DatabaseConfig{Path: "path"},
				Reservation: ReservationConfig{TTL: "24h", SweepInterval: "1m"},
			},
			wantErr: false,
		},
		{
			name: "missing database path",
			cfg: Config{
				Reservation: ReservationConfig{TTL: "24h", SweepInterval: "1m"},
			},
			wantErr: true,
		},
		{
			name: "invalid ttl",
			cfg: Config{
				Database:    DatabaseConfig{Path: "path"},
				Reservation: ReservationConfig{TTL: "tomorrow", SweepInterval: "1m"},
			},
			wantErr: true,
		},
		{
			name: "negative ttl",
			cfg: Config{
				Database:    DatabaseConfig{Path: "path"},
				Reservation: ReservationConfig{TTL: "-1h", SweepInterval: "1m"},
			},
			wantErr: true,
		},
		{
			name: "auth enabled without keys",
			cfg: Config{
				Database:    DatabaseConfig{Path: "path"},
				Reservation: ReservationConfig{TTL: "24h", SweepInterval: "1m"},
				API: APIConfig{
					Enabled: true,
					Auth:    APIAuthConfig{Enabled: true},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{API: APIConfig{Enabled: true}}
	cfg.applyDefaults()

	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default HTTP port 8080, got %d", cfg.API.HTTP.Port)
	}
	if !cfg.API.Auth.Enabled {
		t.Errorf("expected auth enabled by default when API is enabled")
	}
	if cfg.API.Auth.HeaderAPIKey != "x-api-key" {
		t.Errorf("expected default api key header x-api-key, got %s", cfg.API.Auth.HeaderAPIKey)
	}
	if cfg.API.RateLimit.RPS != models.DefaultRateLimitRPS {
		t.Errorf("expected default rate limit rps %v, got %v", float64(models.DefaultRateLimitRPS), cfg.API.RateLimit.RPS)
	}
	if cfg.Reservation.TTL != "24h0m0s" {
		t.Errorf("expected default reservation ttl 24h0m0s, got %s", cfg.Reservation.TTL)
	}
	if cfg.Cache.TTLSeconds != models.DefaultItemCacheTTL {
		t.Errorf("expected default cache ttl %d, got %d", models.DefaultItemCacheTTL, cfg.Cache.TTLSeconds)
	}
}
