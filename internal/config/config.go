// Package config resolves the runtime configuration of the collector from a
// JSON config file with environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the resolved configuration the collector needs: credentials, the
// tracked repository list and the vault to write into.
type Config struct {
	Token        string
	Username     string
	Repositories []string
	VaultPath    string
}

// Load reads the config file at path and applies environment overrides.
// The file shape follows the vault's config:
//
//	{
//	  "vault_path": "/home/rupali/Obsidian",
//	  "github": {
//	    "username": "rupali59",
//	    "api_token": "ghp_...",
//	    "repositories": ["worktracker", "rupali59/dotfiles"]
//	  }
//	}
//
// GITHUB_API_TOKEN (or GITHUB_TOKEN), GITHUB_USERNAME and OBSIDIAN_VAULT_PATH
// take precedence over the file so tokens can stay out of it.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	// Env bindings are checked in order; the first set variable wins.
	if err := v.BindEnv("github.api_token", "GITHUB_API_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("github.username", "GITHUB_USERNAME"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("vault_path", "OBSIDIAN_VAULT_PATH"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := &Config{
		Token:        v.GetString("github.api_token"),
		Username:     v.GetString("github.username"),
		Repositories: v.GetStringSlice("github.repositories"),
		VaultPath:    v.GetString("vault_path"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Token == "" {
		return errors.New("github token is not configured: set github.api_token or the GITHUB_TOKEN environment variable")
	}
	if c.VaultPath == "" {
		return errors.New("vault path is not configured: set vault_path or the OBSIDIAN_VAULT_PATH environment variable")
	}
	if len(c.Repositories) == 0 {
		return errors.New("no repositories configured under github.repositories")
	}
	return nil
}

// CalendarRoot returns the directory holding the daily-note tree.
func (c *Config) CalendarRoot() string {
	return filepath.Join(c.VaultPath, "Calendar")
}
