package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
	"github.com/garyjia/freelance-billing/internal/domain/money"
	"github.com/garyjia/freelance-billing/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/freelance-billing/pkg/database"
)

type repos struct {
	tx       *sqlite.DB
	clients  port.ClientRepository
	projects port.ProjectRepository
	invoices port.InvoiceRepository
	payments port.PaymentRepository
	history  port.StatusChangeRepository
}

func setupRepos(t *testing.T) repos {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "billing.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).Migrate())

	return repos{
		tx:       sqlite.NewDB(db.DB, logger),
		clients:  NewClientRepository(db.DB, logger),
		projects: NewProjectRepository(db.DB, logger),
		invoices: NewInvoiceRepository(db.DB, logger),
		payments: NewPaymentRepository(db.DB, logger),
		history:  NewStatusChangeRepository(db.DB, logger),
	}
}

func str(s string) *string { return &s }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func createClient(t *testing.T, r repos, name, email string) *entity.Client {
	t.Helper()
	c, err := entity.NewClient(entity.ClientInput{Name: str(name), Email: str(email), Company: str("Acme")})
	require.NoError(t, err)
	require.NoError(t, r.clients.Create(context.Background(), c))
	return c
}

func createInvoice(t *testing.T, r repos, clientID int64, number string) *entity.Invoice {
	t.Helper()
	inv, err := entity.NewInvoice(entity.InvoiceParams{
		InvoiceNumber: number,
		ClientID:      clientID,
		IssueDate:     time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC),
		TaxRate:       d("0.18"),
	})
	require.NoError(t, err)
	_, err = inv.AddItem("Design", d("10"), d("200"), money.DefaultLimits())
	require.NoError(t, err)
	require.NoError(t, r.invoices.Create(context.Background(), inv))
	return inv
}

func TestClientRepository(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	c := createClient(t, r, "Asha", "Asha@Example.com")
	assert.NotZero(t, c.ID)
	assert.False(t, c.CreatedAt.IsZero())

	got, err := r.clients.GetByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "Acme", got.Company)

	t.Run("duplicate email", func(t *testing.T) {
		dup, err := entity.NewClient(entity.ClientInput{Name: str("Other"), Email: str("asha@example.com")})
		require.NoError(t, err)
		err = r.clients.Create(ctx, dup)
		assert.True(t, errors.Is(err, entity.ErrDuplicate))
	})

	t.Run("search", func(t *testing.T) {
		createClient(t, r, "Bilal", "bilal@example.org")
		found, err := r.clients.Search(ctx, "EXAMPLE.ORG")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Bilal", found[0].Name)

		none, err := r.clients.Search(ctx, "%")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("update and delete", func(t *testing.T) {
		require.NoError(t, c.Update(entity.ClientInput{Phone: str("12345")}))
		require.NoError(t, r.clients.Update(ctx, c))

		got, err := r.clients.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "12345", got.Phone)

		require.NoError(t, r.clients.Delete(ctx, c.ID))
		got, err = r.clients.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		assert.ErrorIs(t, r.clients.Delete(ctx, c.ID), entity.ErrClientNotFound)
	})
}

func TestProjectRepository(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	c := createClient(t, r, "Asha", "asha@example.com")

	rate := d("1500")
	p, err := entity.NewProject(entity.ProjectInput{ClientID: c.ID, Name: str("Website"), HourlyRate: &rate}, money.DefaultLimits())
	require.NoError(t, err)
	require.NoError(t, r.projects.Create(ctx, p))

	require.NoError(t, p.AddHours(d("12.5"), money.DefaultLimits()))
	require.NoError(t, r.projects.Update(ctx, p))

	got, err := r.projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.HourlyRate.Valid)
	assert.True(t, got.HourlyRate.Decimal.Equal(rate))
	assert.False(t, got.FixedRate.Valid)
	assert.True(t, got.HoursWorked.Equal(d("12.5")))
	assert.Equal(t, entity.ProjectActive, got.Status)

	n, err := r.projects.CountByClient(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	listed, err := r.projects.List(ctx, port.ProjectFilter{Status: entity.ProjectCompleted})
	require.NoError(t, err)
	assert.Empty(t, listed)

	listed, err = r.projects.List(ctx, port.ProjectFilter{ClientID: c.ID, Status: entity.ProjectActive})
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestInvoiceRepository(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	c := createClient(t, r, "Asha", "asha@example.com")

	inv := createInvoice(t, r, c.ID, "INV-001")
	require.NotZero(t, inv.ID)

	got, err := r.invoices.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Items(), 1)
	assert.NotZero(t, got.Items()[0].ID)
	assert.True(t, got.Subtotal().Equal(d("2000")))
	assert.True(t, got.TaxAmount().Equal(d("360")))
	assert.True(t, got.TotalAmount().Equal(d("2360")))
	assert.Equal(t, 10, got.IssueDate.Day())
	assert.Nil(t, got.ProjectID)

	t.Run("duplicate number", func(t *testing.T) {
		dup, err := entity.NewInvoice(entity.InvoiceParams{
			InvoiceNumber: "INV-001",
			ClientID:      c.ID,
			IssueDate:     time.Now(),
			DueDate:       time.Now(),
		})
		require.NoError(t, err)
		assert.ErrorIs(t, r.invoices.Create(ctx, dup), entity.ErrDuplicate)
	})

	t.Run("update replaces items", func(t *testing.T) {
		_, err := got.AddItem("Hosting", d("1"), d("500"), money.DefaultLimits())
		require.NoError(t, err)
		_, err = got.RemoveItem(0)
		require.NoError(t, err)
		require.NoError(t, r.invoices.Update(ctx, got))

		again, err := r.invoices.GetByNumber(ctx, "INV-001")
		require.NoError(t, err)
		require.Len(t, again.Items(), 1)
		assert.Equal(t, "Hosting", again.Items()[0].Description)
		assert.True(t, again.TotalAmount().Equal(d("590")))
	})

	t.Run("status and filters", func(t *testing.T) {
		require.NoError(t, r.invoices.UpdateStatus(ctx, inv.ID, entity.InvoiceSent))

		sent, err := r.invoices.List(ctx, port.InvoiceFilter{Status: entity.InvoiceSent})
		require.NoError(t, err)
		require.Len(t, sent, 1)
		assert.Len(t, sent[0].Items(), 1)

		drafts, err := r.invoices.List(ctx, port.InvoiceFilter{Status: entity.InvoiceDraft})
		require.NoError(t, err)
		assert.Empty(t, drafts)

		n, err := r.invoices.CountByClient(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("delete cascades items", func(t *testing.T) {
		require.NoError(t, r.invoices.Delete(ctx, inv.ID))
		gone, err := r.invoices.GetByID(ctx, inv.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)
		assert.ErrorIs(t, r.invoices.UpdateStatus(ctx, inv.ID, entity.InvoicePaid), entity.ErrInvoiceNotFound)
	})
}

func TestPaymentRepository(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	c := createClient(t, r, "Asha", "asha@example.com")
	inv := createInvoice(t, r, c.ID, "INV-002")

	amount, fee, ref := d("1000"), d("10"), "UTR-1"
	p, err := entity.NewPayment(inv.ID, entity.PaymentCompleted, entity.PaymentInput{
		Amount:         &amount,
		TransactionFee: &fee,
		TransactionID:  &ref,
	}, money.DefaultLimits(), time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, r.payments.Create(ctx, p))

	got, err := r.payments.GetByTransactionID(ctx, "UTR-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.NetAmount().Equal(d("990")))
	assert.Equal(t, entity.MethodOther, got.Method)

	t.Run("duplicate transaction id", func(t *testing.T) {
		dup, err := entity.NewPayment(inv.ID, entity.PaymentCompleted, entity.PaymentInput{
			Amount:        &amount,
			TransactionID: &ref,
		}, money.DefaultLimits(), time.Now())
		require.NoError(t, err)
		assert.ErrorIs(t, r.payments.Create(ctx, dup), entity.ErrDuplicateTransaction)
	})

	t.Run("payments without reference do not collide", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			small := d("5")
			np, err := entity.NewPayment(inv.ID, entity.PaymentPending, entity.PaymentInput{Amount: &small},
				money.DefaultLimits(), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
			require.NoError(t, err)
			require.NoError(t, r.payments.Create(ctx, np))
		}
		all, err := r.payments.ListByInvoice(ctx, inv.ID)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("date range", func(t *testing.T) {
		jan, err := r.payments.List(ctx, port.PaymentFilter{
			From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		require.Len(t, jan, 1)
		assert.Equal(t, p.ID, jan[0].ID)
	})

	t.Run("update and delete", func(t *testing.T) {
		all, err := r.payments.ListByInvoice(ctx, inv.ID)
		require.NoError(t, err)
		pending := all[len(all)-1]
		require.Equal(t, entity.PaymentPending, pending.Status)

		require.NoError(t, pending.Cancel(ctx))
		require.NoError(t, r.payments.Update(ctx, pending))
		again, err := r.payments.GetByID(ctx, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.PaymentCancelled, again.Status)

		require.NoError(t, r.payments.Delete(ctx, pending.ID))
		assert.ErrorIs(t, r.payments.Delete(ctx, pending.ID), entity.ErrPaymentNotFound)
	})
}

func TestStatusChangeRepository(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, next := range []string{"sent", "paid"} {
		require.NoError(t, r.history.Create(ctx, &entity.StatusChange{
			EntityType:     entity.EntityInvoice,
			EntityID:       7,
			PreviousStatus: []string{"draft", "sent"}[i],
			NewStatus:      next,
			OccurredAt:     base.Add(time.Duration(i) * time.Hour),
		}))
	}

	changes, err := r.history.ListByEntity(ctx, entity.EntityInvoice, 7)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "sent", changes[0].NewStatus)
	assert.Equal(t, "paid", changes[1].NewStatus)

	other, err := r.history.ListByEntity(ctx, entity.EntityPayment, 7)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestTransactionRollback(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		c, err := entity.NewClient(entity.ClientInput{Name: str("Temp"), Email: str("temp@example.com")})
		require.NoError(t, err)
		require.NoError(t, r.clients.Create(ctx, c))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := r.clients.GetByEmail(ctx, "temp@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}
