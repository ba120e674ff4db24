package config

import (
	"fmt"
	"os"

	"github.com/a8m/envsubst"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Core struct {
		// AdminUser defines the default administrator account that will be created on startup.
		AdminUser     string `yaml:"admin_user"`
		AdminPassword string `yaml:"admin_password"`
		AdminEmail    string `yaml:"admin_email"`

		// SelfRegistrationAllowed specifies whether new users can register themselves.
		SelfRegistrationAllowed bool `yaml:"self_registration_allowed"`
	} `yaml:"core"`

	Advanced struct {
		// LogLevel sets the log verbosity. Supported: trace, debug, info, warn, error.
		LogLevel string `yaml:"log_level"`
		// LogFormat sets the log output format. Supported: text, pretty, json.
		LogFormat string `yaml:"log_format"`
	} `yaml:"advanced"`

	Audit AuditConfig `yaml:"audit"`

	Database DatabaseConfig `yaml:"database"`

	Statistics StatisticsConfig `yaml:"statistics"`

	Pipeline PipelineConfig `yaml:"pipeline"`

	Web WebConfig `yaml:"web"`
}

// AuditConfig controls the transactional audit-logging engine.
type AuditConfig struct {
	// Enabled specifies whether mutations on the allow-listed entities are recorded.
	Enabled bool `yaml:"enabled"`
	// Entities is the allow-list of audited entity tables.
	// Supported: users, assets, strategies, orders, trades, signals, backtest_results.
	Entities []string `yaml:"entities"`
}

// StatisticsConfig contains the configuration for the prometheus metrics server.
type StatisticsConfig struct {
	Enabled          bool   `yaml:"enabled"`
	ListeningAddress string `yaml:"listening_address" validate:"required_if=Enabled true"`
}

func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Core.AdminUser = "admin"
	cfg.Core.AdminPassword = "trader"
	cfg.Core.AdminEmail = "admin@trader-portal.local"

	cfg.Advanced.LogLevel = "info"
	cfg.Advanced.LogFormat = "text"

	cfg.Audit = AuditConfig{
		Enabled:  true,
		Entities: []string{"users", "assets", "strategies", "orders", "trades"},
	}

	cfg.Database = DatabaseConfig{
		Type: DatabaseSQLite,
		DSN:  "data/trader.db",
	}

	cfg.Statistics = StatisticsConfig{
		Enabled:          false,
		ListeningAddress: ":8787",
	}

	cfg.Pipeline = PipelineConfig{
		LabelingStrategy: "ema-crossover-v1",
	}

	cfg.Web = WebConfig{
		RequestLogging:    false,
		ListeningAddress:  ":8888",
		SessionIdentifier: "traderPortalSession",
		SessionSecret:     "verysecret",
	}

	return cfg
}

// GetConfig returns the configuration from the config file.
// All values can be overridden by environment variables (${ENV_VAR} syntax in the yaml file).
func GetConfig() (*Config, error) {
	cfg := defaultConfig()

	cfgFileName := "config/config.yaml"
	if envCfgFileName := os.Getenv("TRADER_PORTAL_CONFIG"); envCfgFileName != "" {
		cfgFileName = envCfgFileName
	}

	if err := loadConfigFile(cfg, cfgFileName); err != nil {
		return nil, fmt.Errorf("failed to load config from yaml: %w", err)
	}

	cfg.Web.Sanitize()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(cfg any, filename string) error {
	data, err := envsubst.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // ignore missing config file, defaults will be used
		}
		return fmt.Errorf("failed to read configuration file: %w", err)
	}

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse configuration file: %w", err)
	}

	return nil
}
