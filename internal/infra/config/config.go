package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	LLM     LLMConfig     `yaml:"llm"`
	Summary SummaryConfig `yaml:"summary"`
	SMTP    SMTPConfig    `yaml:"smtp"`
	Limits  LimitsConfig  `yaml:"limits"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string        `yaml:"address"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	AllowedOrigins []string      `yaml:"allowedOrigins"`
}

// LLMConfig contains settings for the chat completion provider.
type LLMConfig struct {
	APIKey      string        `yaml:"apiKey"`
	BaseURL     string        `yaml:"baseUrl"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// SummaryConfig defines summarization pipeline behavior.
type SummaryConfig struct {
	DefaultInstruction string        `yaml:"defaultInstruction"`
	CacheTTL           time.Duration `yaml:"cacheTtl"`
	CacheMaxEntries    int           `yaml:"cacheMaxEntries"`
	ValkeyAddr         string        `yaml:"valkeyAddr"`
}

// SMTPConfig contains relay credentials for outbound mail.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// PolicyConfig describes one fixed-window rate limit policy.
type PolicyConfig struct {
	Budget int           `yaml:"budget"`
	Window time.Duration `yaml:"window"`
	Block  time.Duration `yaml:"block"`
}

// LimitsConfig groups the three rate limit policies.
type LimitsConfig struct {
	Summarize PolicyConfig `yaml:"summarize"`
	Email     PolicyConfig `yaml:"email"`
	General   PolicyConfig `yaml:"general"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.LLM.Timeout = parsed
		}
	}
	if v := os.Getenv("SUMMARY_DEFAULT_INSTRUCTION"); v != "" {
		cfg.Summary.DefaultInstruction = v
	}
	if v := os.Getenv("SUMMARY_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Summary.CacheTTL = parsed
		}
	}
	if v := os.Getenv("CACHE_VALKEY_ADDR"); v != "" {
		cfg.Summary.ValkeyAddr = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.SMTP.Port = parsed
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		cfg.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.SMTP.Password = v
	}
	if v := os.Getenv("SMTP_FROM"); v != "" {
		cfg.SMTP.From = v
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.3,
			Timeout:     30 * time.Second,
		},
		Summary: SummaryConfig{
			DefaultInstruction: "Provide a clear, well-organized summary of this meeting transcript.",
			CacheTTL:           5 * time.Minute,
			CacheMaxEntries:    100,
		},
		SMTP: SMTPConfig{
			Host: "smtp.gmail.com",
			Port: 587,
		},
		Limits: LimitsConfig{
			Summarize: PolicyConfig{Budget: 10, Window: time.Minute, Block: 2 * time.Minute},
			Email:     PolicyConfig{Budget: 5, Window: time.Minute, Block: 5 * time.Minute},
			General:   PolicyConfig{Budget: 100, Window: time.Minute, Block: time.Minute},
		},
	}
}

// Validate ensures the configuration is safe to use. Credentials are
// deliberately not required here: the pipelines report a config error at
// request time so an unconfigured process can still boot and serve health
// checks.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model cannot be empty")
	}
	if c.LLM.Timeout <= 0 {
		return errors.New("llm.timeout must be positive")
	}
	if c.Summary.DefaultInstruction == "" {
		return errors.New("summary.defaultInstruction cannot be empty")
	}
	if c.Summary.CacheTTL <= 0 {
		return errors.New("summary.cacheTtl must be positive")
	}
	if c.Summary.CacheMaxEntries <= 0 {
		return errors.New("summary.cacheMaxEntries must be positive")
	}
	if c.SMTP.Port <= 0 {
		return errors.New("smtp.port must be positive")
	}
	for name, p := range map[string]PolicyConfig{
		"limits.summarize": c.Limits.Summarize,
		"limits.email":     c.Limits.Email,
		"limits.general":   c.Limits.General,
	} {
		if p.Budget <= 0 {
			return fmt.Errorf("%s.budget must be positive", name)
		}
		if p.Window <= 0 {
			return fmt.Errorf("%s.window must be positive", name)
		}
		if p.Block <= 0 {
			return fmt.Errorf("%s.block must be positive", name)
		}
	}
	return nil
}
