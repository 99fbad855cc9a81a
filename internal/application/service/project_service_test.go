package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
)

func TestCreateProject(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	client := seedClient(t, f, "Acme", "acme@example.com")

	p, err := f.projectSvc.CreateProject(ctx, entity.ProjectInput{ClientID: client.ID, Name: str("Site"), HourlyRate: decPtr("150")})
	require.NoError(t, err)
	assert.Equal(t, entity.ProjectActive, p.Status)
	assert.True(t, p.HoursWorked.IsZero())

	_, err = f.projectSvc.CreateProject(ctx, entity.ProjectInput{ClientID: client.ID + 1, Name: str("Ghost"), FixedRate: decPtr("1")})
	assert.ErrorIs(t, err, entity.ErrClientNotFound)

	_, err = f.projectSvc.CreateProject(ctx, entity.ProjectInput{
		ClientID: client.ID, Name: str("Both"), HourlyRate: decPtr("1"), FixedRate: decPtr("1"),
	})
	assert.ErrorIs(t, err, entity.ErrValidation)

	list, err := f.projectSvc.ListProjects(ctx, port.ProjectFilter{ClientID: client.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProjectHours(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	client := seedClient(t, f, "Acme", "acme@example.com")

	hourly, err := f.projectSvc.CreateProject(ctx, entity.ProjectInput{ClientID: client.ID, Name: str("Site"), HourlyRate: decPtr("150")})
	require.NoError(t, err)
	fixed, err := f.projectSvc.CreateProject(ctx, entity.ProjectInput{ClientID: client.ID, Name: str("Logo"), FixedRate: decPtr("900")})
	require.NoError(t, err)

	p, err := f.projectSvc.AddHours(ctx, hourly.ID, dec("2.5"))
	require.NoError(t, err)
	p, err = f.projectSvc.AddHours(ctx, hourly.ID, dec("1.5"))
	require.NoError(t, err)
	assert.True(t, p.HoursWorked.Equal(dec("4")))
	assert.True(t, p.CalculateAmount().Equal(dec("600")))

	_, err = f.projectSvc.AddHours(ctx, hourly.ID, dec("0"))
	assert.ErrorIs(t, err, entity.ErrValidation)

	_, err = f.projectSvc.AddHours(ctx, fixed.ID, dec("1"))
	assert.ErrorIs(t, err, entity.ErrInvalidOperation)

	p, err = f.projectSvc.CorrectHours(ctx, hourly.ID, dec("3"))
	require.NoError(t, err)
	assert.True(t, p.HoursWorked.Equal(dec("3")))

	_, err = f.projectSvc.PauseProject(ctx, hourly.ID)
	require.NoError(t, err)
	_, err = f.projectSvc.AddHours(ctx, hourly.ID, dec("1"))
	assert.ErrorIs(t, err, entity.ErrInvalidOperation)

	stored, err := f.projectSvc.GetProject(ctx, hourly.ID)
	require.NoError(t, err)
	assert.True(t, stored.HoursWorked.Equal(dec("3")))
}

func TestProjectLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	client := seedClient(t, f, "Acme", "acme@example.com")
	p, err := f.projectSvc.CreateProject(ctx, entity.ProjectInput{ClientID: client.ID, Name: str("Site"), FixedRate: decPtr("100")})
	require.NoError(t, err)

	steps := []struct {
		name    string
		fire    func(context.Context, int64) (*entity.Project, error)
		want    entity.ProjectStatus
		wantErr error
	}{
		{"pause", f.projectSvc.PauseProject, entity.ProjectOnHold, nil},
		{"pause again", f.projectSvc.PauseProject, entity.ProjectOnHold, entity.ErrInvalidOperation},
		{"resume", f.projectSvc.ResumeProject, entity.ProjectActive, nil},
		{"complete", f.projectSvc.CompleteProject, entity.ProjectCompleted, nil},
		{"cancel completed", f.projectSvc.CancelProject, entity.ProjectCompleted, entity.ErrInvalidOperation},
	}

	for _, step := range steps {
		_, err := step.fire(ctx, p.ID)
		if step.wantErr != nil {
			assert.ErrorIs(t, err, step.wantErr, step.name)
		} else {
			assert.NoError(t, err, step.name)
		}
		stored, err := f.projectSvc.GetProject(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, step.want, stored.Status, step.name)
	}

	changes, err := f.history.ListByEntity(ctx, entity.EntityProject, p.ID)
	require.NoError(t, err)
	require.Len(t, changes, 3)
	assert.Equal(t, "active", changes[0].PreviousStatus)
	assert.Equal(t, "on_hold", changes[0].NewStatus)
	assert.Equal(t, "project completed", changes[2].Reason)
}

func TestDeleteProject(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	client := seedClient(t, f, "Acme", "acme@example.com")

	billed, err := f.projectSvc.CreateProject(ctx, entity.ProjectInput{ClientID: client.ID, Name: str("Billed"), FixedRate: decPtr("100")})
	require.NoError(t, err)
	spare, err := f.projectSvc.CreateProject(ctx, entity.ProjectInput{ClientID: client.ID, Name: str("Spare"), FixedRate: decPtr("100")})
	require.NoError(t, err)

	_, err = f.invoiceSvc.CreateInvoice(ctx, CreateInvoiceRequest{ClientID: client.ID, ProjectID: &billed.ID})
	require.NoError(t, err)

	err = f.projectSvc.DeleteProject(ctx, billed.ID)
	assert.ErrorIs(t, err, entity.ErrInvalidOperation)

	require.NoError(t, f.projectSvc.DeleteProject(ctx, spare.ID))
	_, err = f.projectSvc.GetProject(ctx, spare.ID)
	assert.ErrorIs(t, err, entity.ErrProjectNotFound)
}

func TestProjectEarnings(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	client := seedClient(t, f, "Acme", "acme@example.com")
	p, err := f.projectSvc.CreateProject(ctx, entity.ProjectInput{ClientID: client.ID, Name: str("Site"), FixedRate: decPtr("1000")})
	require.NoError(t, err)

	paid, err := f.invoiceSvc.CreateInvoice(ctx, CreateInvoiceRequest{ClientID: client.ID, ProjectID: &p.ID, InvoiceNumber: "INV-A"})
	require.NoError(t, err)
	_, err = f.invoiceSvc.SendInvoice(ctx, paid.ID)
	require.NoError(t, err)
	_, err = f.paymentSvc.RecordPayment(ctx, pay(paid.ID, "1180"))
	require.NoError(t, err)

	_, err = f.invoiceSvc.CreateInvoice(ctx, CreateInvoiceRequest{ClientID: client.ID, ProjectID: &p.ID, InvoiceNumber: "INV-B"})
	require.NoError(t, err)

	earned, err := f.projectSvc.ProjectEarnings(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, earned.Equal(dec("1180")), "earned %s", earned)

	_, err = f.projectSvc.ProjectEarnings(ctx, 99)
	assert.ErrorIs(t, err, entity.ErrProjectNotFound)
}
