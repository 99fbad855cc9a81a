package container

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/freelance-billing/internal/application/service"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Database.Path = filepath.Join(dir, "billing.db")
	cfg.Documents.OutputDir = filepath.Join(dir, "invoices")
	cfg.Export.OutputDir = filepath.Join(dir, "exports")
	cfg.Billing.OverdueCheckInterval = 0
	return cfg
}

func TestNewContainerValidation(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(DefaultConfig(), nil)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Database.Path = ""
	_, err = NewContainer(cfg, zap.NewNop())
	assert.ErrorContains(t, err, "database.path")
}

func TestContainerLifecycle(t *testing.T) {
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(ctx), "second start")
	assert.Nil(t, c.Monitor())

	for name, check := range c.HealthChecks() {
		assert.NoError(t, check(ctx), name)
	}

	svc := c.Services()
	name, email := "Acme", "ap@acme.test"
	client, err := svc.Clients.CreateClient(ctx, entity.ClientInput{Name: &name, Email: &email})
	require.NoError(t, err)

	invoice, err := svc.Invoices.CreateInvoice(ctx, service.CreateInvoiceRequest{
		ClientID: client.ID,
		Items:    []service.ItemInput{{Description: "Design", Quantity: decimalOf("2"), Rate: decimalOf("100")}},
	})
	require.NoError(t, err)
	_, err = svc.Invoices.SendInvoice(ctx, invoice.ID)
	require.NoError(t, err)

	// the dispatcher records status changes through the history repository
	history, err := svc.Invoices.History(ctx, invoice.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, history)

	result, err := svc.Exports.Export(ctx, service.ExportClients, "csv")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows)
	assert.FileExists(t, result.Path)

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close())
	assert.Error(t, c.Start(ctx))
}

func TestContainerRegistersOverdueMonitor(t *testing.T) {
	cfg := testConfig(t)
	cfg.Billing.OverdueCheckInterval = time.Hour

	c, err := NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	require.NotNil(t, c.Monitor())
	assert.Contains(t, c.HealthChecks(), "overdue_monitor")

	// the first scan runs as soon as the monitor starts
	assert.Eventually(t, func() bool { return c.Monitor().Stats().Scans > 0 }, 2*time.Second, 10*time.Millisecond)
}

func decimalOf(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
