package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	SpotifyTokenURL      = "https://accounts.spotify.com/api/token"
	SpotifyNowPlayingURL = "https://api.spotify.com/v1/me/player/currently-playing"
	DefaultPort          = 8787
)

// Config represents the application configuration, loaded from an optional TOML file
// and overlaid with the process environment. It is built once at startup and never mutated afterwards.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains the client credential pair, the long-lived refresh token and the upstream endpoints.
type SpotifyConfig struct {
	ClientID      string `toml:"client_id"`
	ClientSecret  string `toml:"client_secret"`
	RefreshToken  string `toml:"refresh_token"`
	TokenURL      string `toml:"token_url"`
	NowPlayingURL string `toml:"now_playing_url"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host                string  `toml:"host"`
	Port                int     `toml:"port"`
	AllowedOriginDomain string  `toml:"allowed_origin_domain"`
	RateLimit           float64 `toml:"rate_limit"`
	RateBurst           int     `toml:"rate_burst"`
	Timeout             int     `toml:"timeout"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// UpstreamTimeout returns the per-call timeout for upstream requests.
func (s ServerConfig) UpstreamTimeout() time.Duration {
	if s.Timeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.Timeout) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the defaults from the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
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
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv loads variables from the given dotenv files into the process environment.
//
// Missing files are skipped and variables already present in the environment are never overwritten.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load builds the startup configuration: defaults, then the TOML file at path when it exists,
// then the process environment.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyEnv overlays environment variables onto the config using lookup (usually [os.LookupEnv]).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	env := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	str := func(key string, dst *string) {
		if v, ok := env(key); ok {
			*dst = v
		}
	}

	str("SPOTIFY_CLIENT_ID", &c.Credentials.Spotify.ClientID)
	str("SPOTIFY_CLIENT_SECRET", &c.Credentials.Spotify.ClientSecret)
	str("SPOTIFY_REFRESH_TOKEN", &c.Credentials.Spotify.RefreshToken)
	str("ALLOWED_ORIGIN_DOMAIN", &c.Server.AllowedOriginDomain)
	str("HOST", &c.Server.Host)
	str("LOG_LEVEL", &c.Log.Level)

	if v, ok := env("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil || port < 0 || port > 65535 {
			return fmt.Errorf("%w: PORT must be a port number, got %q", ErrInvalidConfig, v)
		}
		c.Server.Port = port
	}

	if v, ok := env("RATE_LIMIT"); ok {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil || limit < 0 {
			return fmt.Errorf("%w: RATE_LIMIT must be a non-negative number, got %q", ErrInvalidConfig, v)
		}
		c.Server.RateLimit = limit
	}

	if v, ok := env("RATE_BURST"); ok {
		burst, err := strconv.Atoi(v)
		if err != nil || burst < 1 {
			return fmt.Errorf("%w: RATE_BURST must be a positive integer, got %q", ErrInvalidConfig, v)
		}
		c.Server.RateBurst = burst
	}

	return nil
}

// Validate reports every required credential that is missing.
func (c *Config) Validate() error {
	var missing []string
	if c.Credentials.Spotify.ClientID == "" {
		missing = append(missing, "SPOTIFY_CLIENT_ID")
	}
	if c.Credentials.Spotify.ClientSecret == "" {
		missing = append(missing, "SPOTIFY_CLIENT_SECRET")
	}
	if c.Credentials.Spotify.RefreshToken == "" {
		missing = append(missing, "SPOTIFY_REFRESH_TOKEN")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// Redacted returns key-value pairs describing the config that are safe to log.
func (c *Config) Redacted() []any {
	return []any{
		"client_id", Mask(c.Credentials.Spotify.ClientID),
		"client_secret", Mask(c.Credentials.Spotify.ClientSecret),
		"refresh_token", Mask(c.Credentials.Spotify.RefreshToken),
		"addr", c.Server.Addr(),
		"allowed_origin_domain", c.Server.AllowedOriginDomain,
		"rate_limit", c.Server.RateLimit,
	}
}

// Mask hides a secret, reporting only whether it is set.
func Mask(secret string) string {
	if secret == "" {
		return "<unset>"
	}
	return "<redacted>"
}
