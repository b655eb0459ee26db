package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
)

// Config holds process-level settings. Values come from an optional YAML
// file, with environment variables taking precedence so deployments can
// override without editing the file.
type Config struct {
	Port        string   `yaml:"port"`
	DatabaseURL string   `yaml:"database_url"`
	CORSOrigins []string `yaml:"cors_origins"`

	Pool struct {
		MaxOpenConns    int `yaml:"max_open_conns"`
		MaxIdleConns    int `yaml:"max_idle_conns"`
		ConnMaxLifeMins int `yaml:"conn_max_life_mins"`
	} `yaml:"pool"`

	RateLimit struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// Load reads the config file at path (if it exists) and applies
// environment overrides. A missing file is not an error; env-only
// configuration is the common deployment mode.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Port = "5050"
	cfg.Pool.MaxOpenConns = 20
	cfg.Pool.MaxIdleConns = 20
	cfg.Pool.ConnMaxLifeMins = 30
	cfg.RateLimit.RequestsPerSecond = 50
	cfg.RateLimit.Burst = 100

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("MAX_OPEN_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pool.MaxOpenConns = n
		}
	}

	return cfg, nil
}
