package service

import (
	"context"
	"time"

	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
	"github.com/garyjia/freelance-billing/internal/domain/report"
)

// ReportService loads billing records and folds them into reports
type ReportService interface {
	RevenueSummary(ctx context.Context) (report.RevenueSummary, error)
	Aging(ctx context.Context) (report.AgingReport, error)
	Outstanding(ctx context.Context) (report.OutstandingReport, error)
	ClientRevenue(ctx context.Context) ([]report.ClientRevenue, error)
	ProjectSummary(ctx context.Context) ([]report.ProjectSummary, error)
	TimeTracking(ctx context.Context) (report.TimeTracking, error)
	// MonthlyRevenue covers from..to inclusive; zero bounds default to the last twelve months
	MonthlyRevenue(ctx context.Context, from, to time.Time) ([]report.MonthRevenue, error)
	Month(ctx context.Context, year int, month time.Month) (report.MonthReport, error)
	StatusBreakdown(ctx context.Context) ([]report.StatusGroup, error)
	PaymentSummary(ctx context.Context, from, to time.Time) (report.PaymentSummary, error)
}

type reportServiceImpl struct {
	clientRepo  port.ClientRepository
	projectRepo port.ProjectRepository
	invoiceRepo port.InvoiceRepository
	paymentRepo port.PaymentRepository
	settings    Settings
	logger      Logger
}

// NewReportService creates a new ReportService
func NewReportService(
	clientRepo port.ClientRepository,
	projectRepo port.ProjectRepository,
	invoiceRepo port.InvoiceRepository,
	paymentRepo port.PaymentRepository,
	settings Settings,
	logger Logger,
) ReportService {
	return &reportServiceImpl{
		clientRepo:  clientRepo,
		projectRepo: projectRepo,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		settings:    settings,
		logger:      logger,
	}
}

// snapshot is everything a report may need, loaded once per request
type snapshot struct {
	clients  []*entity.Client
	projects []*entity.Project
	invoices []*entity.Invoice
	dir      report.Directory
}

func (s *reportServiceImpl) load(ctx context.Context) (*snapshot, error) {
	clients, err := s.clientRepo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to load clients for report", "error", err)
		return nil, err
	}
	projects, err := s.projectRepo.List(ctx, port.ProjectFilter{})
	if err != nil {
		s.logger.Error("Failed to load projects for report", "error", err)
		return nil, err
	}
	invoices, err := s.invoiceRepo.List(ctx, port.InvoiceFilter{})
	if err != nil {
		s.logger.Error("Failed to load invoices for report", "error", err)
		return nil, err
	}
	return &snapshot{
		clients:  clients,
		projects: projects,
		invoices: invoices,
		dir:      report.NewDirectory(clients, projects),
	}, nil
}

func (s *reportServiceImpl) RevenueSummary(ctx context.Context) (report.RevenueSummary, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return report.RevenueSummary{}, err
	}
	return report.Summarize(snap.invoices, s.settings.today()), nil
}

func (s *reportServiceImpl) Aging(ctx context.Context) (report.AgingReport, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return report.AgingReport{}, err
	}
	return report.Aging(snap.invoices, snap.dir, s.settings.today()), nil
}

func (s *reportServiceImpl) Outstanding(ctx context.Context) (report.OutstandingReport, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return report.OutstandingReport{}, err
	}
	return report.Outstanding(snap.invoices, snap.dir, s.settings.today()), nil
}

func (s *reportServiceImpl) ClientRevenue(ctx context.Context) ([]report.ClientRevenue, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return report.ClientRevenueRollup(snap.clients, snap.invoices, snap.dir), nil
}

func (s *reportServiceImpl) ProjectSummary(ctx context.Context) ([]report.ProjectSummary, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return report.ProjectRollup(snap.projects, snap.invoices, snap.dir), nil
}

func (s *reportServiceImpl) TimeTracking(ctx context.Context) (report.TimeTracking, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return report.TimeTracking{}, err
	}
	return report.TrackTime(snap.projects, snap.dir), nil
}

func (s *reportServiceImpl) MonthlyRevenue(ctx context.Context, from, to time.Time) ([]report.MonthRevenue, error) {
	if to.IsZero() {
		to = s.settings.today()
	}
	if from.IsZero() {
		from = time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)
	}
	if to.Before(from) {
		return nil, entity.Invalid("report start %s is after end %s", from.Format(time.DateOnly), to.Format(time.DateOnly))
	}

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return report.MonthlyRevenue(snap.invoices, from, to), nil
}

func (s *reportServiceImpl) Month(ctx context.Context, year int, month time.Month) (report.MonthReport, error) {
	if month < time.January || month > time.December {
		return report.MonthReport{}, entity.Invalid("month must be between 1 and 12")
	}
	snap, err := s.load(ctx)
	if err != nil {
		return report.MonthReport{}, err
	}
	return report.Month(snap.invoices, year, month), nil
}

func (s *reportServiceImpl) StatusBreakdown(ctx context.Context) ([]report.StatusGroup, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return report.StatusBreakdown(snap.invoices, snap.dir, s.settings.today()), nil
}

func (s *reportServiceImpl) PaymentSummary(ctx context.Context, from, to time.Time) (report.PaymentSummary, error) {
	if to.IsZero() {
		to = s.settings.today()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	if to.Before(from) {
		return report.PaymentSummary{}, entity.Invalid("report start %s is after end %s", from.Format(time.DateOnly), to.Format(time.DateOnly))
	}

	payments, err := s.paymentRepo.List(ctx, port.PaymentFilter{From: from, To: to})
	if err != nil {
		s.logger.Error("Failed to load payments for report", "error", err)
		return report.PaymentSummary{}, err
	}
	return report.SummarizePayments(payments, from, to), nil
}
