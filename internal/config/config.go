package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceName       string `yaml:"service_name"`
	DatabaseURL       string `yaml:"database_url"`
	HTTPListenAddr    string `yaml:"http_listen_addr"`
	MetricsListenAddr string `yaml:"metrics_listen_addr"`
	LogLevel          string `yaml:"log_level"`
	// CredentialsKey decrypts stored panel passwords. 64 hex characters are
	// used as the raw AES key, anything else is a passphrase.
	CredentialsKey string `yaml:"credentials_key"`

	DefaultPortCPanel      int `yaml:"default_port_cpanel"`
	DefaultPortDirectAdmin int `yaml:"default_port_directadmin"`
	// CustomPort overrides the DirectAdmin default when a server has no port.
	CustomPort int `yaml:"custom_port"`

	RequestTimeout      time.Duration `yaml:"request_timeout"`
	HeavyRequestTimeout time.Duration `yaml:"heavy_request_timeout"`

	MigrateOnStart bool `yaml:"migrate_on_start"`
}

func defaults() *Config {
	return &Config{
		ServiceName:            "softsso",
		HTTPListenAddr:         ":8090",
		MetricsListenAddr:      ":9090",
		LogLevel:               "info",
		DefaultPortCPanel:      2083,
		DefaultPortDirectAdmin: 2222,
		RequestTimeout:         30 * time.Second,
		HeavyRequestTimeout:    120 * time.Second,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	var errs []error
	cfg.ServiceName = getEnv("SERVICE_NAME", cfg.ServiceName)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.HTTPListenAddr = getEnv("HTTP_LISTEN_ADDR", cfg.HTTPListenAddr)
	cfg.MetricsListenAddr = getEnv("METRICS_LISTEN_ADDR", cfg.MetricsListenAddr)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.CredentialsKey = getEnv("CREDENTIALS_KEY", cfg.CredentialsKey)
	cfg.DefaultPortCPanel = getEnvInt("DEFAULT_PORT_CPANEL", cfg.DefaultPortCPanel, &errs)
	cfg.DefaultPortDirectAdmin = getEnvInt("DEFAULT_PORT_DIRECTADMIN", cfg.DefaultPortDirectAdmin, &errs)
	cfg.CustomPort = getEnvInt("CUSTOM_PORT", cfg.CustomPort, &errs)
	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout, &errs)
	cfg.HeavyRequestTimeout = getEnvDuration("HEAVY_REQUEST_TIMEOUT", cfg.HeavyRequestTimeout, &errs)
	cfg.MigrateOnStart = getEnvBool("MIGRATE_ON_START", cfg.MigrateOnStart, &errs)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate checks that the fields required by the given binary are set.
func (c *Config) Validate(binary string) error {
	var missing []string
	require := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}

	switch binary {
	case "api":
		require("DATABASE_URL", c.DatabaseURL)
		require("HTTP_LISTEN_ADDR", c.HTTPListenAddr)
		require("CREDENTIALS_KEY", c.CredentialsKey)
	case "cli":
		require("DATABASE_URL", c.DatabaseURL)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	if c.DefaultPortCPanel <= 0 || c.DefaultPortCPanel > 65535 {
		return fmt.Errorf("DEFAULT_PORT_CPANEL out of range: %d", c.DefaultPortCPanel)
	}
	if c.DefaultPortDirectAdmin <= 0 || c.DefaultPortDirectAdmin > 65535 {
		return fmt.Errorf("DEFAULT_PORT_DIRECTADMIN out of range: %d", c.DefaultPortDirectAdmin)
	}
	if c.CustomPort < 0 || c.CustomPort > 65535 {
		return fmt.Errorf("CUSTOM_PORT out of range: %d", c.CustomPort)
	}
	if c.RequestTimeout <= 0 || c.HeavyRequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT and HEAVY_REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return fallback
	}
	return d
}

func getEnvBool(key string, fallback bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return fallback
	}
	return b
}
