package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the resolved settings of the service. Values are layered:
// defaults, then the YAML file named by CONFIG_FILE, then the environment.
type Config struct {
	AppPort            int           `yaml:"port" env:"BROWSER_PORT"`
	ExecPath           string        `yaml:"exec_path" env:"BROWSER_EXECUTABLE_PATH"`
	ProxyURL           string        `yaml:"proxy_url" env:"BROWSER_PROXY_URL"`
	LaunchFlags        []string      `yaml:"launch_flags" env:"BROWSER_FLAGS" envSeparator:","`
	UserAgent          string        `yaml:"user_agent" env:"BROWSER_USER_AGENT"`
	NavigationTimeout  time.Duration `yaml:"navigation_timeout" env:"BROWSER_NAV_TIMEOUT"`
	LaunchTimeout      time.Duration `yaml:"launch_timeout" env:"BROWSER_LAUNCH_TIMEOUT"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout" env:"BROWSER_SHUTDOWN_TIMEOUT"`
	MaxConcurrentPages int           `yaml:"max_concurrent_pages" env:"BROWSER_MAX_CONCURRENT_PAGES"`

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"` // json or console

	EnableArticle bool `yaml:"enable_article" env:"BROWSER_ENABLE_ARTICLE"`
	EnableMetrics bool `yaml:"enable_metrics" env:"BROWSER_ENABLE_METRICS"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		AppPort:           9223,
		ExecPath:          "/usr/bin/chromium-browser",
		NavigationTimeout: 30 * time.Second,
		LaunchTimeout:     30 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "json",
		EnableArticle:     true,
		EnableMetrics:     true,
	}
}

func Load() (*Config, error) {
	return LoadFrom(os.Getenv("CONFIG_FILE"))
}

// LoadFrom is Load with an explicit file path; an empty path skips the file.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.AppPort <= 0 || c.AppPort > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.AppPort))
	}
	if c.MaxConcurrentPages < 0 {
		errs = append(errs, errors.New("max_concurrent_pages must not be negative"))
	}
	if c.NavigationTimeout < 0 || c.LaunchTimeout < 0 || c.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
