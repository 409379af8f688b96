package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load builds the configuration: defaults, then the optional YAML file,
// then .env and process environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file failed, err: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file failed, err: %w", err)
		}
	}
	_ = godotenv.Load()
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// ApplyEnv resolves credentials and MEDASSIST_* overrides through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	get := func(key string) string {
		if v, ok := lookup(key); ok {
			return strings.TrimSpace(v)
		}
		return ""
	}

	for i := range c.Providers {
		p := &c.Providers[i]
		if p.APIKey != "" {
			continue
		}
		for _, env := range p.APIKeyEnv {
			if v := get(env); v != "" {
				p.APIKey = v
				break
			}
		}
	}
	if c.Embedding.APIKey == "" {
		for _, env := range c.Embedding.APIKeyEnv {
			if v := get(env); v != "" {
				c.Embedding.APIKey = v
				break
			}
		}
	}

	if v := get("MEDASSIST_ADDR"); v != "" {
		c.Server.Addr = v
	} else if v := get("PORT"); v != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v := get("MEDASSIST_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := get("MEDASSIST_DATASET"); v != "" {
		c.Dataset.Path = v
	}
	if v := get("MEDASSIST_INDEX_PATH"); v != "" {
		c.Retrieval.IndexPath = v
	}
	if v := get("DATABASE_URL"); v != "" {
		if c.Retrieval.DatabaseURL == "" {
			c.Retrieval.DatabaseURL = v
		}
		if c.History.DSN == "" && c.History.Driver == "postgres" {
			c.History.DSN = v
		}
	}
	if v := get("MEDASSIST_HISTORY_DRIVER"); v != "" {
		c.History.Driver = v
	}
	if v := get("MEDASSIST_HISTORY_DSN"); v != "" {
		c.History.DSN = v
	}
	if v := get("REDIS_ADDR"); v != "" {
		c.Session.Redis.Address = v
		if c.Session.Store == "" || c.Session.Store == "memory" {
			c.Session.Store = "redis"
		}
	}
	if v := get("REDIS_PASSWORD"); v != "" {
		c.Session.Redis.Password = v
	}
	if v := get("MEDASSIST_CACHE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.Capacity = n
		}
	}
}

// KeyUsable reports whether a credential looks real: present, not a
// placeholder and carrying the expected prefix when one is configured.
func (p ProviderConfig) KeyUsable() bool {
	key := strings.TrimSpace(p.APIKey)
	if key == "" {
		return false
	}
	lower := strings.ToLower(key)
	if strings.HasPrefix(lower, "your_") || strings.HasSuffix(lower, "_here") {
		return false
	}
	if p.KeyPrefix != "" && !strings.HasPrefix(key, p.KeyPrefix) {
		return false
	}
	return true
}

// MaskedKey returns the first characters of the key for log lines.
func (p ProviderConfig) MaskedKey() string {
	if p.APIKey == "" {
		return "None"
	}
	if len(p.APIKey) <= 8 {
		return "***"
	}
	return p.APIKey[:8] + "..."
}
