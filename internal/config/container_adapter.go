package config

import (
	"github.com/shopspring/decimal"

	"github.com/garyjia/freelance-billing/internal/container"
	"github.com/garyjia/freelance-billing/internal/domain/money"
)

// ToContainerConfig converts the application Config to a container.Config.
// Float settings are rounded to the precision the billing rules use.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Billing: container.BillingConfig{
			Currency:       c.Billing.Currency,
			TaxRate:        decimal.NewFromFloat(c.Billing.TaxRate).Round(4),
			InvoicePrefix:  c.Billing.InvoicePrefix,
			DefaultDueDays: c.Billing.DefaultDueDays,
			Limits: money.Limits{
				MaxAmount:   decimal.NewFromFloat(c.Billing.MaxAmount).Round(2),
				MaxQuantity: decimal.NewFromFloat(c.Billing.MaxQuantity).Round(2),
			},
			OverdueCheckInterval: c.Billing.OverdueCheckInterval,
		},
		Documents: container.DocumentsConfig{
			OutputDir:      c.Documents.OutputDir,
			ChromiumPath:   c.Documents.ChromiumPath,
			RenderTimeout:  c.Documents.RenderTimeout,
			CompanyName:    c.Company.Name,
			CompanyAddress: c.Company.Address,
			CompanyEmail:   c.Company.Email,
			CompanyPhone:   c.Company.Phone,
		},
		Export: container.ExportConfig{
			OutputDir: c.Export.OutputDir,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
			Mode:         c.Server.Mode,
		},
	}
}
