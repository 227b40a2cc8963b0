// Package config loads harness configuration from an optional YAML file
// and PACK_-prefixed environment variables. Env values override the file;
// a double underscore separates nesting levels (PACK_OPENAI__API_KEY sets
// openai.api_key).
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	OpenAI   OpenAIConfig   `koanf:"openai"`
	Defaults DefaultsConfig `koanf:"defaults"`
	Cache    CacheConfig    `koanf:"cache"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type OpenAIConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

// DefaultsConfig sets the fallback generation parameters injected into
// formula parameter defaults.
type DefaultsConfig struct {
	Model       string  `koanf:"model"`
	MaxTokens   int     `koanf:"max_tokens"`
	Temperature float64 `koanf:"temperature"`
}

// CacheConfig configures the harness formula-result cache. An empty path
// disables caching.
type CacheConfig struct {
	Path string `koanf:"path"`
}

// Load reads configuration. path may be empty to load from the
// environment alone.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("PACK_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "PACK_")), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8712)
	}
	if !k.Exists("defaults.model") {
		k.Set("defaults.model", "gpt-3.5-turbo")
	}
	if !k.Exists("defaults.max_tokens") {
		k.Set("defaults.max_tokens", 512)
	}
	if !k.Exists("defaults.temperature") {
		k.Set("defaults.temperature", 1.0)
	}
	if !k.Exists("cache.path") {
		k.Set("cache.path", "packhost.db")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
