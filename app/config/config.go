// Package config holds the engine and service settings read from
// config/postal.yaml.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type ModelCfg struct {
	// Dir holds the artifact files; empty uses the embedded tables.
	Dir string `yaml:"dir" json:"dir"`

	// Version tags cached results; bump it when the tables change.
	Version string   `yaml:"version" json:"version"`
	Modules []string `yaml:"modules" json:"modules"`
}

type LanguagesCfg struct {
	TopK int `yaml:"top_k" json:"top_k"`
}

type ExpandCfg struct {
	MaxExpansions int      `yaml:"max_expansions" json:"max_expansions"`
	Components    []string `yaml:"components" json:"components"`
}

type ParserCfg struct {
	DefaultCountry string `yaml:"default_country" json:"default_country"`
}

type BatchCfg struct {
	Workers      int `yaml:"workers" json:"workers"`
	MaxAddresses int `yaml:"max_addresses" json:"max_addresses"`
}

type CacheCfg struct {
	// Backend is one of memory, redis, mongo, hybrid or none.
	Backend string        `yaml:"backend" json:"backend"`
	Size    int           `yaml:"size" json:"size"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
}

type SearchCfg struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Index   string `yaml:"index" json:"index"`
	Limit   int    `yaml:"limit" json:"limit"`
}

type LogCfg struct {
	Level       string `yaml:"level" json:"level"`
	Development bool   `yaml:"development" json:"development"`
}

type ServerCfg struct {
	Port           string        `yaml:"port" json:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

type Config struct {
	Model     ModelCfg     `yaml:"model" json:"model"`
	Languages LanguagesCfg `yaml:"languages" json:"languages"`
	Expand    ExpandCfg    `yaml:"expand" json:"expand"`
	Parser    ParserCfg    `yaml:"parser" json:"parser"`
	Batch     BatchCfg     `yaml:"batch" json:"batch"`
	Cache     CacheCfg     `yaml:"cache" json:"cache"`
	Search    SearchCfg    `yaml:"search" json:"search"`
	Log       LogCfg       `yaml:"log" json:"log"`
	Server    ServerCfg    `yaml:"server" json:"server"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Model: ModelCfg{
			Version: "embedded-1",
			Modules: []string{"all"},
		},
		Languages: LanguagesCfg{TopK: 3},
		Expand: ExpandCfg{
			MaxExpansions: 100,
			Components:    []string{"default"},
		},
		Batch:  BatchCfg{Workers: 4, MaxAddresses: 20000},
		Cache:  CacheCfg{Backend: "memory", Size: 10000, TTL: 24 * time.Hour},
		Search: SearchCfg{Index: "addresses", Limit: 10},
		Log:    LogCfg{Level: "info"},
		Server: ServerCfg{Port: "8080", RequestTimeout: 1500 * time.Millisecond},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// ENV overrides
func (c *Config) applyEnv() {
	if dir := os.Getenv("POSTAL_MODEL_DIR"); dir != "" {
		c.Model.Dir = dir
	}
	if mods := os.Getenv("POSTAL_MODULES"); mods != "" {
		c.Model.Modules = splitList(mods)
	}
	if v := os.Getenv("POSTAL_MODEL_VERSION"); v != "" {
		c.Model.Version = v
	}
	if b := os.Getenv("POSTAL_CACHE_BACKEND"); b != "" {
		c.Cache.Backend = b
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "redis", "mongo", "hybrid", "none":
	default:
		return fmt.Errorf("cache.backend: unknown backend %q", c.Cache.Backend)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be positive, got %d", c.Batch.Workers)
	}
	if c.Languages.TopK < 1 {
		return fmt.Errorf("languages.top_k must be positive, got %d", c.Languages.TopK)
	}
	if len(c.Model.Modules) == 0 {
		return fmt.Errorf("model.modules is empty")
	}
	return nil
}
