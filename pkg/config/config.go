// Package config loads connector settings with the precedence
// explicit options > environment variables > settings file. A .env
// file in the working directory is folded into the environment when
// present.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/predyx/market-connector/pkg/venues/interfaces"
)

// Environment variable names
const (
	EnvAPIKeyID       = "KALSHI_API_KEY_ID"
	EnvPrivateKey     = "KALSHI_API_PRIVATE_KEY"
	EnvPrivateKeyPath = "KALSHI_PRIVATE_KEY_PATH"
	EnvBearerToken    = "KALSHI_API_KEY"
	EnvDataDir        = "DATA_DIR"
	EnvLogLevel       = "LOG_LEVEL"
)

const pemMarker = "-----BEGIN"

// KalshiConfig holds the Kalshi credential material
type KalshiConfig struct {
	APIKeyID       string `yaml:"api_key_id"`
	PrivateKey     string `yaml:"private_key"`
	PrivateKeyPath string `yaml:"private_key_path"`
	BearerToken    string `yaml:"api_key"`
}

// Config is the full connector configuration
type Config struct {
	Kalshi   KalshiConfig `yaml:"kalshi"`
	DataDir  string       `yaml:"data_dir"`
	LogLevel string       `yaml:"log_level"`
}

// Option overrides a loaded value. Options are applied last and win
// over both the environment and the settings file.
type Option func(*Config)

// WithAPIKeyID sets the Kalshi API key id
func WithAPIKeyID(id string) Option {
	return func(c *Config) { c.Kalshi.APIKeyID = id }
}

// WithPrivateKey sets the RSA private key, inline PEM or a file path
func WithPrivateKey(key string) Option {
	return func(c *Config) { c.Kalshi.PrivateKey = key }
}

// WithBearerToken sets the bearer token
func WithBearerToken(token string) Option {
	return func(c *Config) { c.Kalshi.BearerToken = token }
}

// WithDataDir sets the Parquet cache directory
func WithDataDir(dir string) Option {
	return func(c *Config) { c.DataDir = dir }
}

// Load builds the configuration. settingsPath names an optional YAML
// settings file; a missing file is not an error. Environment variables
// override file values, and explicit options override everything.
func Load(settingsPath string, opts ...Option) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:  "./data",
		LogLevel: "info",
	}

	if settingsPath != "" {
		data, err := os.ReadFile(settingsPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing settings file %s: %w", settingsPath, err)
			}
		case os.IsNotExist(err):
			// optional file
		default:
			return nil, fmt.Errorf("reading settings file %s: %w", settingsPath, err)
		}
	}

	applyEnv(cfg)

	for _, opt := range opts {
		opt(cfg)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setIfPresent := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setIfPresent(&cfg.Kalshi.APIKeyID, EnvAPIKeyID)
	setIfPresent(&cfg.Kalshi.PrivateKey, EnvPrivateKey)
	setIfPresent(&cfg.Kalshi.PrivateKeyPath, EnvPrivateKeyPath)
	setIfPresent(&cfg.Kalshi.BearerToken, EnvBearerToken)
	setIfPresent(&cfg.DataDir, EnvDataDir)
	setIfPresent(&cfg.LogLevel, EnvLogLevel)
}

// Credential selects the credential from the loaded material. An inline
// PEM wins over a key path, which wins over a bearer token. No material
// at all yields the zero credential, good for public endpoints only.
func (c *Config) Credential() interfaces.Credential {
	k := c.Kalshi
	switch {
	case strings.HasPrefix(k.PrivateKey, pemMarker):
		return interfaces.RSAKey(k.APIKeyID, k.PrivateKey)
	case k.PrivateKeyPath != "":
		return interfaces.RSAKey(k.APIKeyID, k.PrivateKeyPath)
	case k.BearerToken != "":
		return interfaces.BearerToken(k.BearerToken)
	default:
		return interfaces.Credential{}
	}
}

// VenueOptions builds venue options carrying the selected credential.
// When the primary credential is an RSA key and a bearer token is also
// configured, the token becomes the signing fallback.
func (c *Config) VenueOptions() *interfaces.VenueOptions {
	options := interfaces.NewVenueOptions().WithCredential(c.Credential())
	if options.Credential.Kind() == interfaces.CredentialRSAKey && c.Kalshi.BearerToken != "" {
		options = options.WithFallbackToken(c.Kalshi.BearerToken)
	}
	options.LogLevel = c.LogLevel
	return options
}
