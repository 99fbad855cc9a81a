// Package container wires the billing system together and owns its lifecycle.
package container

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/freelance-billing/internal/application/service"
	"github.com/garyjia/freelance-billing/internal/domain/money"
)

// Config holds all configuration for the Container.
type Config struct {
	Database  DatabaseConfig
	Billing   BillingConfig
	Documents DocumentsConfig
	Export    ExportConfig
	Server    ServerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// BillingConfig holds the settings shared by all billing services.
type BillingConfig struct {
	Currency       string
	TaxRate        decimal.Decimal
	InvoicePrefix  string
	DefaultDueDays int
	Limits         money.Limits

	// OverdueCheckInterval of 0 leaves the overdue monitor unregistered
	OverdueCheckInterval time.Duration
}

// DocumentsConfig holds PDF rendering settings.
type DocumentsConfig struct {
	OutputDir      string
	ChromiumPath   string
	RenderTimeout  time.Duration
	CompanyName    string
	CompanyAddress string
	CompanyEmail   string
	CompanyPhone   string
}

// ExportConfig holds table export settings.
type ExportConfig struct {
	OutputDir string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Mode         string
}

// Settings converts the billing section to service settings.
func (b BillingConfig) Settings() service.Settings {
	return service.Settings{
		Currency:       b.Currency,
		TaxRate:        b.TaxRate,
		InvoicePrefix:  b.InvoicePrefix,
		DefaultDueDays: b.DefaultDueDays,
		Limits:         b.Limits,
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	defaults := service.DefaultSettings()
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/billing.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Billing: BillingConfig{
			Currency:             defaults.Currency,
			TaxRate:              defaults.TaxRate,
			InvoicePrefix:        defaults.InvoicePrefix,
			DefaultDueDays:       defaults.DefaultDueDays,
			Limits:               defaults.Limits,
			OverdueCheckInterval: time.Hour,
		},
		Documents: DocumentsConfig{
			OutputDir:     "data/invoices",
			RenderTimeout: 30 * time.Second,
			CompanyName:   "Freelance Billing",
		},
		Export: ExportConfig{
			OutputDir: "data/exports",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			Mode:         "release",
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Billing.Currency == "" {
		return fmt.Errorf("billing.currency is required")
	}
	if c.Billing.TaxRate.IsNegative() || c.Billing.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("billing.tax_rate must be between 0 and 1")
	}
	if !c.Billing.Limits.MaxAmount.IsPositive() || !c.Billing.Limits.MaxQuantity.IsPositive() {
		return fmt.Errorf("billing limits must be positive")
	}
	if c.Documents.OutputDir == "" {
		return fmt.Errorf("documents.output_dir is required")
	}
	if c.Export.OutputDir == "" {
		return fmt.Errorf("export.output_dir is required")
	}
	return nil
}
