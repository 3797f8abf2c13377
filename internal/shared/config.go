package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Credentials CredentialsConfig `toml:"credentials"`
	Sessions    SessionsConfig    `toml:"sessions"`
	Database    DatabaseConfig    `toml:"database"`
	Upstream    UpstreamConfig    `toml:"upstream"`
	Log         LogConfig         `toml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	FrontendURL    string   `toml:"frontend_url"`
	AllowedOrigins []string `toml:"allowed_origins"`
	ExposeToken    bool     `toml:"expose_token"`
	CookieSecure   bool     `toml:"cookie_secure"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and endpoints.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	APIURL       string `toml:"api_url"`
	AuthURL      string `toml:"auth_url"`
	TokenURL     string `toml:"token_url"`
}

// SessionsConfig controls the session and credential stores.
type SessionsConfig struct {
	Store             string   `toml:"store"`
	SessionTTL        Duration `toml:"session_ttl"`
	CredentialTTL     Duration `toml:"credential_ttl"`
	EvictInterval     Duration `toml:"evict_interval"`
	SessionIDAttempts int      `toml:"session_id_attempts"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// UpstreamConfig tunes outbound calls to the provider API.
type UpstreamConfig struct {
	Timeout        Duration `toml:"timeout"`
	RateLimit      float64  `toml:"rate_limit"`
	Burst          int      `toml:"burst"`
	TopTracksLimit int      `toml:"top_tracks_limit"`
	TimeRange      string   `toml:"time_range"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration is a [time.Duration] that reads and writes as a string such as "5m" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, text, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep their defaults from the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
//
// An existing file is replaced only when overwrite is set.
func CreateConfigFile(path string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadEnv loads variables from a dotenv file into the process environment.
//
// A missing file is not an error.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides Spotify credentials with CLIENT_ID, CLIENT_SECRET and REDIRECT_URI when set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv("CLIENT_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv("REDIRECT_URI"); v != "" {
		c.Credentials.Spotify.RedirectURI = v
	}
}

// Placeholder credentials shipped in the example config.
const (
	PlaceholderClientID     = "your_spotify_client_id"
	PlaceholderClientSecret = "your_spotify_client_secret"
)

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	spotify := c.Credentials.Spotify
	if spotify.ClientID == "" || spotify.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set", ErrMissingCredentials)
	}
	if spotify.ClientID == PlaceholderClientID || spotify.ClientSecret == PlaceholderClientSecret {
		return fmt.Errorf("%w: spotify client_id and client_secret still hold the example placeholders", ErrMissingCredentials)
	}
	if spotify.RedirectURI == "" {
		return fmt.Errorf("%w: spotify redirect_uri must be set", ErrInvalidConfig)
	}

	switch strings.ToLower(c.Sessions.Store) {
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("%w: unknown session store %q", ErrInvalidConfig, c.Sessions.Store)
	}

	if strings.EqualFold(c.Sessions.Store, StoreSQLite) && c.Database.Path == "" {
		return fmt.Errorf("%w: database path is required for the sqlite store", ErrInvalidConfig)
	}

	durations := []struct {
		name string
		d    Duration
	}{
		{"sessions.session_ttl", c.Sessions.SessionTTL},
		{"sessions.credential_ttl", c.Sessions.CredentialTTL},
		{"sessions.evict_interval", c.Sessions.EvictInterval},
		{"upstream.timeout", c.Upstream.Timeout},
	}
	for _, field := range durations {
		if field.d.Duration <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, field.name)
		}
	}

	if c.Server.Port <= 0 {
		return fmt.Errorf("%w: server port must be positive", ErrInvalidConfig)
	}

	return nil
}
