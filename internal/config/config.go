package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Billing   BillingConfig   `mapstructure:"billing"`
	Company   CompanyConfig   `mapstructure:"company"`
	Documents DocumentsConfig `mapstructure:"documents"`
	Export    ExportConfig    `mapstructure:"export"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Mode         string        `mapstructure:"mode"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// BillingConfig holds currency, tax and invoice numbering settings
type BillingConfig struct {
	Currency       string  `mapstructure:"currency"`
	TaxRate        float64 `mapstructure:"tax_rate"`
	InvoicePrefix  string  `mapstructure:"invoice_prefix"`
	DefaultDueDays int     `mapstructure:"default_due_days"`
	MaxAmount      float64 `mapstructure:"max_amount"`
	MaxQuantity    float64 `mapstructure:"max_quantity"`
	// OverdueCheckInterval of 0 disables the overdue monitor
	OverdueCheckInterval time.Duration `mapstructure:"overdue_check_interval"`
}

// CompanyConfig is printed in the invoice header
type CompanyConfig struct {
	Name    string `mapstructure:"name"`
	Address string `mapstructure:"address"`
	Email   string `mapstructure:"email"`
	Phone   string `mapstructure:"phone"`
}

// DocumentsConfig holds PDF rendering configuration
type DocumentsConfig struct {
	OutputDir     string        `mapstructure:"output_dir"`
	ChromiumPath  string        `mapstructure:"chromium_path"`
	RenderTimeout time.Duration `mapstructure:"render_timeout"`
}

// ExportConfig holds CSV/XLSX export configuration
type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// EnvFile is loaded into the environment before configuration is read, when present
const EnvFile = ".env"

// Load loads configuration from an optional YAML file and environment variables.
// An empty configPath uses defaults and the environment only.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BILLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile exports the variables of path without overriding ones already set
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.mode", "release")

	// Database defaults
	v.SetDefault("database.path", "data/billing.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Billing defaults
	v.SetDefault("billing.currency", "INR")
	v.SetDefault("billing.tax_rate", 0.18)
	v.SetDefault("billing.invoice_prefix", "INV")
	v.SetDefault("billing.default_due_days", 30)
	v.SetDefault("billing.max_amount", 999999.99)
	v.SetDefault("billing.max_quantity", 9999)
	v.SetDefault("billing.overdue_check_interval", time.Hour)

	// Company defaults
	v.SetDefault("company.name", "Freelance Billing")
	v.SetDefault("company.address", "")
	v.SetDefault("company.email", "")
	v.SetDefault("company.phone", "")

	// Document defaults
	v.SetDefault("documents.output_dir", "data/invoices")
	v.SetDefault("documents.chromium_path", "")
	v.SetDefault("documents.render_timeout", 30*time.Second)

	v.SetDefault("export.output_dir", "data/exports")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds the environment names that do not follow the BILLING_ prefix rule
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("server.port", "BILLING_SERVER_PORT", "PORT")
	_ = v.BindEnv("database.path", "BILLING_DATABASE_PATH", "BILLING_DB")
	_ = v.BindEnv("documents.chromium_path", "BILLING_DOCUMENTS_CHROMIUM_PATH", "CHROME_PATH")
	_ = v.BindEnv("logger.level", "BILLING_LOGGER_LEVEL", "LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if len(c.Billing.Currency) != 3 {
		return fmt.Errorf("billing.currency must be an ISO 4217 code, got %q", c.Billing.Currency)
	}
	if c.Billing.TaxRate < 0 || c.Billing.TaxRate > 1 {
		return fmt.Errorf("billing.tax_rate must be between 0 and 1, got %v", c.Billing.TaxRate)
	}
	if c.Billing.InvoicePrefix == "" {
		return fmt.Errorf("billing.invoice_prefix is required")
	}
	if c.Billing.DefaultDueDays < 0 {
		return fmt.Errorf("billing.default_due_days cannot be negative")
	}
	if c.Billing.MaxAmount <= 0 || c.Billing.MaxQuantity <= 0 {
		return fmt.Errorf("billing.max_amount and billing.max_quantity must be positive")
	}
	if c.Billing.OverdueCheckInterval < 0 {
		return fmt.Errorf("billing.overdue_check_interval cannot be negative")
	}

	if c.Documents.OutputDir == "" {
		return fmt.Errorf("documents.output_dir is required")
	}
	if c.Export.OutputDir == "" {
		return fmt.Errorf("export.output_dir is required")
	}

	return nil
}
