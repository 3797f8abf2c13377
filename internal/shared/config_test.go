package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Server.Port != 8888 {
			t.Errorf("expected server port 8888, got %d", config.Server.Port)
		}

		if config.Sessions.Store != StoreMemory {
			t.Errorf("expected memory store, got %s", config.Sessions.Store)
		}

		if config.Sessions.SessionTTL.Duration != 24*time.Hour {
			t.Errorf("expected session ttl 24h, got %s", config.Sessions.SessionTTL)
		}

		if config.Upstream.TopTracksLimit != 15 {
			t.Errorf("expected top tracks limit 15, got %d", config.Upstream.TopTracksLimit)
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if err := config.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected placeholder credentials to be rejected, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath, false); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath, false); err == nil {
			t.Error("creating config file again should fail")
		}

		if err := os.WriteFile(configPath, []byte("[server]\nport = 1\n"), 0644); err != nil {
			t.Fatalf("failed to write stale config: %v", err)
		}
		if err := CreateConfigFile(configPath, true); err != nil {
			t.Fatalf("overwrite failed: %v", err)
		}
		config, err = LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load overwritten config: %v", err)
		}
		if config.Server.Port != 8888 {
			t.Errorf("expected overwritten config to carry port 8888, got %d", config.Server.Port)
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[server]
host = "0.0.0.0"
port = 9000

[sessions]
store = "sqlite"
session_ttl = "2h"

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:9000/callback"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Addr() != "0.0.0.0:9000" {
			t.Errorf("expected addr 0.0.0.0:9000, got %s", config.Server.Addr())
		}

		if config.Sessions.SessionTTL.Duration != 2*time.Hour {
			t.Errorf("expected session ttl 2h, got %s", config.Sessions.SessionTTL)
		}

		if config.Sessions.CredentialTTL.Duration != time.Hour {
			t.Errorf("expected credential ttl to keep default 1h, got %s", config.Sessions.CredentialTTL)
		}

		if config.Credentials.Spotify.APIURL != "https://api.spotify.com/v1" {
			t.Errorf("expected default api url, got %s", config.Credentials.Spotify.APIURL)
		}
	})

	t.Run("LoadConfig with bad duration", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[sessions]\nsession_ttl = \"soon\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error for invalid duration")
		}
	})

	t.Run("SaveConfig round trip", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		config.Sessions.Store = StoreSQLite

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if loaded.Sessions.Store != StoreSQLite {
			t.Errorf("expected sqlite store, got %s", loaded.Sessions.Store)
		}
		if loaded.Upstream.Timeout.Duration != config.Upstream.Timeout.Duration {
			t.Errorf("expected timeout %s, got %s", config.Upstream.Timeout, loaded.Upstream.Timeout)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	tt := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{
			name:    "missing client id",
			mutate:  func(c *Config) { c.Credentials.Spotify.ClientID = "" },
			wantErr: ErrMissingCredentials,
		},
		{
			name:    "placeholder client id",
			mutate:  func(c *Config) { c.Credentials.Spotify.ClientID = PlaceholderClientID },
			wantErr: ErrMissingCredentials,
		},
		{
			name:    "placeholder client secret",
			mutate:  func(c *Config) { c.Credentials.Spotify.ClientSecret = PlaceholderClientSecret },
			wantErr: ErrMissingCredentials,
		},
		{
			name:    "missing redirect",
			mutate:  func(c *Config) { c.Credentials.Spotify.RedirectURI = "" },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "unknown store",
			mutate:  func(c *Config) { c.Sessions.Store = "redis" },
			wantErr: ErrInvalidConfig,
		},
		{
			name: "sqlite without path",
			mutate: func(c *Config) {
				c.Sessions.Store = StoreSQLite
				c.Database.Path = ""
			},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "zero ttl",
			mutate:  func(c *Config) { c.Sessions.SessionTTL.Duration = 0 },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "zero port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			config := validConfig()
			tc.mutate(config)

			err := config.Validate()
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tc.wantErr)
			}
		})
	}

	t.Run("valid", func(t *testing.T) {
		if err := validConfig().Validate(); err != nil {
			t.Errorf("expected config to validate, got %v", err)
		}
	})

	t.Run("reports durations in field order", func(t *testing.T) {
		for range 20 {
			config := validConfig()
			config.Sessions.SessionTTL.Duration = 0
			config.Sessions.EvictInterval.Duration = 0
			config.Upstream.Timeout.Duration = 0

			err := config.Validate()
			if err == nil || !strings.Contains(err.Error(), "sessions.session_ttl") {
				t.Fatalf("expected session_ttl to be reported first, got %v", err)
			}
		}
	})
}

func validConfig() *Config {
	config := DefaultConfig()
	config.Credentials.Spotify.ClientID = "client"
	config.Credentials.Spotify.ClientSecret = "secret"
	return config
}

func TestEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		if err := LoadEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("expected no error for missing env file, got %v", err)
		}
	})

	t.Run("env overrides credentials", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("CLIENT_ID=from_env\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv("CLIENT_ID", "")
		t.Setenv("CLIENT_SECRET", "secret_from_env")
		os.Unsetenv("CLIENT_ID")

		if err := LoadEnv(envPath); err != nil {
			t.Fatalf("failed to load env: %v", err)
		}

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Credentials.Spotify.ClientID != "from_env" {
			t.Errorf("expected client id from env file, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.ClientSecret != "secret_from_env" {
			t.Errorf("expected client secret from env, got %s", config.Credentials.Spotify.ClientSecret)
		}
	})
}
