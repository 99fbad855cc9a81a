package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/freelance-billing/internal/domain/entity"
	"github.com/garyjia/freelance-billing/internal/domain/money"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Settings holds the billing configuration shared by the services
type Settings struct {
	Currency       string
	TaxRate        decimal.Decimal
	InvoicePrefix  string
	DefaultDueDays int
	Limits         money.Limits

	// Now defaults to time.Now
	Now func() time.Time
}

// DefaultSettings returns INR billing with 18% tax and 30 day terms
func DefaultSettings() Settings {
	return Settings{
		Currency:       "INR",
		TaxRate:        decimal.RequireFromString("0.18"),
		InvoicePrefix:  "INV",
		DefaultDueDays: 30,
		Limits:         money.DefaultLimits(),
	}
}

func (s Settings) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s Settings) today() time.Time {
	return entity.Date(s.now())
}
