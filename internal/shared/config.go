package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values read from config.toml.
const (
	EnvAccessToken  = "SPOTIFY_ACCESS_TOKEN"
	EnvClientID     = "SPOTIFY_CLIENT_ID"
	EnvClientSecret = "SPOTIFY_CLIENT_SECRET"
	EnvExtractor    = "ESSENTIA_EXTRACTOR"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Spotify   SpotifyConfig   `toml:"spotify"`
	Playlist  PlaylistConfig  `toml:"playlist"`
	Extractor ExtractorConfig `toml:"extractor"`
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
}

// SpotifyConfig contains Spotify API credentials.
//
// AccessToken is the bearer credential used by the playlist creator. It is never refreshed.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id"`
	ClientSecret string    `toml:"client_secret"`
	RedirectURI  string    `toml:"redirect_uri"`
	BaseURL      string    `toml:"base_url"`
	AccessToken  string    `toml:"access_token"`
	TokenExpiry  time.Time `toml:"token_expiry,omitempty"`
}

// PlaylistConfig holds the fixed playlist the `playlist create` command builds.
type PlaylistConfig struct {
	Name              string   `toml:"name"`
	Description       string   `toml:"description"`
	Public            bool     `toml:"public"`
	Tracks            []string `toml:"tracks"`
	RollbackOnFailure bool     `toml:"rollback_on_failure"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
}

// ExtractorConfig configures the external Essentia music extractor.
type ExtractorConfig struct {
	Binary       string   `toml:"binary"`
	TempDir      string   `toml:"temp_dir"`
	SilentFrames string   `toml:"silent_frames"`
	FrameSize    int      `toml:"frame_size"`
	HopSize      int      `toml:"hop_size"`
	Stats        []string `toml:"stats"`
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig controls log level and an optional rotating log file.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Update stores the access token from a completed authorization.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidCredentials)
	}
	s.AccessToken = token.AccessToken
	s.TokenExpiry = token.Expiry
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
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

// SaveConfig writes config to path as TOML, replacing any existing file.
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

// LoadDotEnv loads KEY=VALUE pairs from the given .env files into the process environment.
//
// Missing files are ignored; variables already set are not overwritten.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides credentials and the extractor binary from environment variables.
//
// lookup is usually [os.LookupEnv].
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAccessToken); ok && v != "" {
		c.Spotify.AccessToken = v
	}
	if v, ok := lookup(EnvClientID); ok && v != "" {
		c.Spotify.ClientID = v
	}
	if v, ok := lookup(EnvClientSecret); ok && v != "" {
		c.Spotify.ClientSecret = v
	}
	if v, ok := lookup(EnvExtractor); ok && v != "" {
		c.Extractor.Binary = v
	}
}

// Resolve loads config from path when it exists, falls back to defaults otherwise,
// then applies environment overrides.
func Resolve(path string) (*Config, error) {
	config, err := loadOrDefault(path)
	if err != nil {
		return nil, err
	}
	config.ApplyEnv(os.LookupEnv)
	return config, nil
}

// SaveToken stores token in the config file at path.
//
// The file is re-read from disk so values taken from the environment are never written back.
func SaveToken(path string, token *oauth2.Token) error {
	config, err := loadOrDefault(path)
	if err != nil {
		return err
	}
	if err := config.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}
	return SaveConfig(path, config)
}

func loadOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(path); err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}
