package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/coffee-env/internal/environment"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	Environment          environment.Environment
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string          `yaml:"port"`
	ShutdownGracePeriod  string          `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string          `yaml:"read_header_timeout"`
	WriteTimeout         string          `yaml:"write_timeout"`
	IdleTimeout          string          `yaml:"idle_timeout"`
	EnableRequestLogging *bool           `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit   `yaml:"rate_limit"`
	Environment          yamlEnvironment `yaml:"environment"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

type yamlEnvironment struct {
	Production   *bool     `yaml:"production"`
	APIServerURL string    `yaml:"api_server_url"`
	Auth0        yamlAuth0 `yaml:"auth0"`
}

type yamlAuth0 struct {
	URL         string `yaml:"url"`
	Audience    string `yaml:"audience"`
	ClientID    string `yaml:"client_id"`
	CallbackURL string `yaml:"callback_url"`
}

// CLIOverrides holds command-line flag overrides. Nil fields are left untouched;
// a non-nil empty string is applied as given.
type CLIOverrides struct {
	ConfigFile       string
	Port             *string
	RateLimitRPS     *float64
	RateLimitBurst   *int
	Production       *bool
	APIServerURL     *string
	Auth0URL         *string
	Auth0Audience    *string
	Auth0ClientID    *string
	Auth0CallbackURL *string
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	applyEnvConfig(&cfg)

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		Environment:          environment.Template(),
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		value, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = value
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	env := &cfg.Environment
	if yamlCfg.Environment.Production != nil {
		env.Production = *yamlCfg.Environment.Production
	}
	setIfNotEmpty(&env.APIServerURL, yamlCfg.Environment.APIServerURL)
	setIfNotEmpty(&env.Auth0.URL, yamlCfg.Environment.Auth0.URL)
	setIfNotEmpty(&env.Auth0.Audience, yamlCfg.Environment.Auth0.Audience)
	setIfNotEmpty(&env.Auth0.ClientID, yamlCfg.Environment.Auth0.ClientID)
	setIfNotEmpty(&env.Auth0.CallbackURL, yamlCfg.Environment.Auth0.CallbackURL)

	return nil
}

// applyEnvConfig applies environment variable configuration.
// Malformed values are ignored.
func applyEnvConfig(cfg *Config) {
	setIfNotEmpty(&cfg.Port, lookupEnv("PORT"))

	if rps := lookupEnv("RATE_LIMIT_RPS"); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := lookupEnv("RATE_LIMIT_BURST"); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}

	env := &cfg.Environment
	if production := lookupEnv("PRODUCTION"); production != "" {
		if value, err := strconv.ParseBool(production); err == nil {
			env.Production = value
		}
	}
	setIfNotEmpty(&env.APIServerURL, lookupEnv("API_SERVER_URL"))
	setIfNotEmpty(&env.Auth0.URL, lookupEnv("AUTH0_URL"))
	setIfNotEmpty(&env.Auth0.Audience, lookupEnv("AUTH0_AUDIENCE"))
	setIfNotEmpty(&env.Auth0.ClientID, lookupEnv("AUTH0_CLIENT_ID"))
	setIfNotEmpty(&env.Auth0.CallbackURL, lookupEnv("AUTH0_CALLBACK_URL"))
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}
	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	env := &cfg.Environment
	if overrides.Production != nil {
		env.Production = *overrides.Production
	}
	setIfNotNil(&env.APIServerURL, overrides.APIServerURL)
	setIfNotNil(&env.Auth0.URL, overrides.Auth0URL)
	setIfNotNil(&env.Auth0.Audience, overrides.Auth0Audience)
	setIfNotNil(&env.Auth0.ClientID, overrides.Auth0ClientID)
	setIfNotNil(&env.Auth0.CallbackURL, overrides.Auth0CallbackURL)
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if err := cfg.Environment.Validate(); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}

func lookupEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setIfNotEmpty(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setIfNotNil(dst *string, value *string) {
	if value != nil {
		*dst = *value
	}
}
