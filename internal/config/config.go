// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
)

type Config struct {
	ProgramID      string  `mapstructure:"program_id"`
	Fees           float64 `mapstructure:"fees"`
	InitialFunding uint64  `mapstructure:"initial_funding"`
	PostgresURL    string  `mapstructure:"postgres_url"`
	DebugLogging   bool    `mapstructure:"debug_logging"`
	LogFile        string  `mapstructure:"log_file"`
	MetricsAddr    string  `mapstructure:"metrics_addr"`
	EventBuffer    int     `mapstructure:"event_buffer"`
	Retries        int     `mapstructure:"retries"`
}

const (
	DefaultProgramID      = "BDeQaWDdyQoGDWfvNrrc2ovCKCoxrRyQHZsDAiHuAuHV"
	DefaultFees           = 1.0
	DefaultInitialFunding = 10_000_000
	DefaultLogFile        = "curve.log"
	DefaultEventBuffer    = 256
	DefaultRetries        = 3

	envPrefix = "CURVE"
)

// LoadConfig reads the configuration file at path. An empty path yields the
// defaults, still subject to CURVE_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	defaults := map[string]interface{}{
		"program_id":      DefaultProgramID,
		"fees":            DefaultFees,
		"initial_funding": DefaultInitialFunding,
		"postgres_url":    "",
		"debug_logging":   false,
		"log_file":        DefaultLogFile,
		"metrics_addr":    "",
		"event_buffer":    DefaultEventBuffer,
		"retries":         DefaultRetries,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	loadEnvironmentVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

// ProgramKey parses ProgramID.
func (c *Config) ProgramKey() (solana.PublicKey, error) {
	return solana.PublicKeyFromBase58(c.ProgramID)
}

// Curve returns the validated curve configuration.
func (c *Config) Curve() (CurveConfiguration, error) {
	return NewCurveConfiguration(c.Fees)
}

func validateConfig(cfg *Config) error {
	if cfg.ProgramID == "" {
		return errors.New("missing program_id in configuration")
	}
	if _, err := cfg.ProgramKey(); err != nil {
		return errors.New("program_id is not a valid base58 public key")
	}
	if _, err := cfg.Curve(); err != nil {
		return fmt.Errorf("invalid fees: %w", err)
	}
	if cfg.PostgresURL != "" {
		if err := validateURL(cfg.PostgresURL, "postgres"); err != nil {
			return errors.New("postgres_url must use the postgres scheme")
		}
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.InitialFunding == 0 {
		return errors.New("invalid initial_funding")
	}
	if cfg.EventBuffer <= 0 {
		return errors.New("invalid event_buffer")
	}
	if cfg.Retries < 0 {
		return errors.New("invalid retries count")
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	return nil
}

// loadEnvironmentVariables lets CURVE_<KEY> override any known key.
func loadEnvironmentVariables(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}
