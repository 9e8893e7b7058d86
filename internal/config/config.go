// Package config loads process configuration from an optional YAML file and
// MICROBEMAP_-prefixed environment variables, with programmatic defaults.
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Storage  StorageConfig  `koanf:"storage"`
	Language string         `koanf:"language"`
	Provider ProviderConfig `koanf:"provider"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
	// Origin is the public origin of this deployment, sent in attribution
	// headers to aggregators that require them.
	Origin string `koanf:"origin"`
}

type StorageConfig struct {
	Path string `koanf:"path"`
}

// ProviderConfig seeds the runtime provider configuration when the store has
// none yet. The runtime copy is user-editable and persisted separately.
type ProviderConfig struct {
	Kind         string `koanf:"kind"`
	APIKey       string `koanf:"apikey"`
	Model        string `koanf:"model"`
	BaseURL      string `koanf:"baseurl"`
	DirectClient bool   `koanf:"directclient"`
}

// Load reads the optional config file then environment variables; env wins.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	if err := k.Load(env.Provider("MICROBEMAP_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "MICROBEMAP_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("storage.path") {
		k.Set("storage.path", "./data/assistant.db")
	}
	if !k.Exists("language") {
		k.Set("language", "en")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
