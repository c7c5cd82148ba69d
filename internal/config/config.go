// Package config loads the YAML runtime configuration. Values may
// reference environment variables as ${NAME}; unknown variables are left
// untouched so misconfiguration is visible instead of silently blank.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adjutant-ai/adjutant/internal/provider"
	"github.com/adjutant-ai/adjutant/internal/scheduler"
)

type Config struct {
	Providers map[string]ProviderConfig `yaml:"providers"`
	Engine    EngineConfig              `yaml:"engine"`
	Store     StoreConfig               `yaml:"store"`
	Sessions  SessionsConfig            `yaml:"sessions"`
	Gateway   GatewayConfig             `yaml:"gateway"`
	Scheduler SchedulerConfig           `yaml:"scheduler"`
	Lua       LuaConfig                 `yaml:"lua"`
}

type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	API     string `yaml:"api"`
	Model   string `yaml:"model"`
}

type EngineConfig struct {
	// Provider is the id of the providers entry the engine talks to.
	Provider          string `yaml:"provider"`
	DecideTimeout     string `yaml:"decide_timeout"`
	ExtractTimeout    string `yaml:"extract_timeout"`
	SummarizeTimeout  string `yaml:"summarize_timeout"`
	CapabilityTimeout string `yaml:"capability_timeout"`
	HistorySize       int    `yaml:"history_size"`
}

type StoreConfig struct {
	Driver  string `yaml:"driver"`   // sqlite (default) or postgres
	DataDir string `yaml:"data_dir"` // sqlite
	DSN     string `yaml:"dsn"`      // postgres
}

type SessionsConfig struct {
	Backend     string      `yaml:"backend"` // memory (default) or redis
	MaxMessages int         `yaml:"max_messages"`
	Redis       RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type GatewayConfig struct {
	Listen string `yaml:"listen"`
}

type SchedulerConfig struct {
	DataDir string          `yaml:"data_dir"`
	Jobs    []scheduler.Job `yaml:"jobs"`
}

type LuaConfig struct {
	Dir string `yaml:"dir"`
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)}`)

func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

func expandEnvInProviders(cfg *Config) {
	for name, p := range cfg.Providers {
		p.BaseURL = expandEnv(p.BaseURL)
		p.APIKey = expandEnv(p.APIKey)
		cfg.Providers[name] = p
	}
	cfg.Sessions.Redis.Addr = expandEnv(cfg.Sessions.Redis.Addr)
	cfg.Sessions.Redis.Password = expandEnv(cfg.Sessions.Redis.Password)
	cfg.Store.DSN = expandEnv(cfg.Store.DSN)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	expandEnvInProviders(&cfg)
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite"
	}
	if cfg.Store.DataDir == "" {
		cfg.Store.DataDir = "data"
	}
	if cfg.Sessions.Backend == "" {
		cfg.Sessions.Backend = "memory"
	}
	if cfg.Sessions.MaxMessages == 0 {
		cfg.Sessions.MaxMessages = 50
	}
	if cfg.Gateway.Listen == "" {
		cfg.Gateway.Listen = ":8080"
	}
	if cfg.Engine.HistorySize == 0 {
		cfg.Engine.HistorySize = 256
	}
}

func validate(cfg *Config) error {
	if cfg.Engine.Provider != "" {
		if _, ok := cfg.Providers[cfg.Engine.Provider]; !ok {
			return fmt.Errorf("engine.provider %q has no providers entry", cfg.Engine.Provider)
		}
	}
	switch cfg.Sessions.Backend {
	case "memory":
	case "redis":
		if cfg.Sessions.Redis.Addr == "" {
			return fmt.Errorf("sessions.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown sessions backend %q", cfg.Sessions.Backend)
	}
	for _, field := range []struct{ name, value string }{
		{"engine.decide_timeout", cfg.Engine.DecideTimeout},
		{"engine.extract_timeout", cfg.Engine.ExtractTimeout},
		{"engine.summarize_timeout", cfg.Engine.SummarizeTimeout},
		{"engine.capability_timeout", cfg.Engine.CapabilityTimeout},
	} {
		if field.value == "" {
			continue
		}
		if _, err := time.ParseDuration(field.value); err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
	}
	return nil
}

// Duration parses a config duration, returning fallback when unset.
func Duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// ProviderConfigs converts the providers map for the provider factory.
func (c *Config) ProviderConfigs() []provider.Config {
	out := make([]provider.Config, 0, len(c.Providers))
	for id, p := range c.Providers {
		out = append(out, provider.Config{
			ID:      id,
			BaseURL: p.BaseURL,
			APIKey:  p.APIKey,
			API:     p.API,
			Model:   p.Model,
		})
	}
	return out
}
