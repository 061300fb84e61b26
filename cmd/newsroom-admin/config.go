// ABOUTME: Configuration loading for the newsroom admin CLI.
// ABOUTME: Loads TOML config from the XDG path with environment variable expansion.

package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Gateway GatewayConfig `toml:"gateway"`
	Auth    AuthConfig    `toml:"auth"`
}

type GatewayConfig struct {
	URL string `toml:"url"`
}

type AuthConfig struct {
	Token string `toml:"token"`

	// JWTSecret, when set, lets "token create" mint local development
	// tokens without talking to the gateway.
	JWTSecret string `toml:"jwt_secret"`
}

// configPath returns the admin config location.
// Priority: NEWSROOM_ADMIN_CONFIG > XDG_CONFIG_HOME/newsroom/admin.toml > ~/.config/newsroom/admin.toml
func configPath() string {
	if envPath := os.Getenv("NEWSROOM_ADMIN_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "admin.toml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "newsroom", "admin.toml")
}

// loadConfig reads config from the given path, expanding environment
// variables. Environment variables NEWSROOM_URL and NEWSROOM_TOKEN override
// the file.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if data, err := os.ReadFile(path); err == nil {
		expanded := expandEnvVars(string(data))
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if u := os.Getenv("NEWSROOM_URL"); u != "" {
		cfg.Gateway.URL = u
	}
	if t := os.Getenv("NEWSROOM_TOKEN"); t != "" {
		cfg.Auth.Token = t
	}
	if cfg.Gateway.URL == "" {
		cfg.Gateway.URL = "http://localhost:8080"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// expandEnvVars replaces ${VAR} with environment variable values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(varName)
	})
}

// Validate checks that required config fields are present and valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Gateway.URL)
	if err != nil {
		return fmt.Errorf("gateway.url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("gateway.url must use http or https scheme")
	}
	return nil
}
