package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/freelance-billing/internal/application/dispatcher"
	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/application/service"
	"github.com/garyjia/freelance-billing/internal/infrastructure/document"
	"github.com/garyjia/freelance-billing/internal/infrastructure/export"
	"github.com/garyjia/freelance-billing/internal/infrastructure/persistence/repository"
	"github.com/garyjia/freelance-billing/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/freelance-billing/internal/infrastructure/storage"
	"github.com/garyjia/freelance-billing/internal/infrastructure/worker"
	"github.com/garyjia/freelance-billing/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// StorageBundle holds the file stores for rendered invoices and exports.
type StorageBundle struct {
	Documents port.FileStorage
	Exports   port.FileStorage
}

// DocumentBundle holds the PDF renderer and inspector.
type DocumentBundle struct {
	Renderer  port.DocumentRenderer
	Inspector port.DocumentInspector
}

// ProvideDatabase opens the database and applies the embedded migrations.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Clients:       repository.NewClientRepository(db.DB, logger),
		Projects:      repository.NewProjectRepository(db.DB, logger),
		Invoices:      repository.NewInvoiceRepository(db.DB, logger),
		Payments:      repository.NewPaymentRepository(db.DB, logger),
		StatusChanges: repository.NewStatusChangeRepository(db.DB, logger),
	}, nil
}

// ProvideStorage creates the invoice and export file stores.
func ProvideStorage(docs *DocumentsConfig, exp *ExportConfig, logger *zap.Logger) (*StorageBundle, error) {
	if docs == nil || exp == nil {
		return nil, fmt.Errorf("storage config is required")
	}

	documents, err := storage.NewLocalFileStorage(docs.OutputDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create document storage: %w", err)
	}
	exports, err := storage.NewLocalFileStorage(exp.OutputDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create export storage: %w", err)
	}

	return &StorageBundle{Documents: documents, Exports: exports}, nil
}

// ProvideDocuments creates the chromedp renderer and the fitz inspector.
func ProvideDocuments(cfg *DocumentsConfig, currency string, logger *zap.Logger) *DocumentBundle {
	renderer := document.NewRenderer(document.Config{
		Company: document.Company{
			Name:    cfg.CompanyName,
			Address: cfg.CompanyAddress,
			Email:   cfg.CompanyEmail,
			Phone:   cfg.CompanyPhone,
		},
		Currency:     currency,
		ChromiumPath: cfg.ChromiumPath,
		Timeout:      cfg.RenderTimeout,
	}, logger)

	return &DocumentBundle{Renderer: renderer, Inspector: document.NewInspector()}
}

// ProvideTableWriters returns the supported export encoders.
func ProvideTableWriters() []port.TableWriter {
	return []port.TableWriter{export.CSVWriter{}, export.XLSXWriter{}}
}

// ProvideDispatcher creates the event dispatcher and subscribes the status history recorder.
func ProvideDispatcher(history port.StatusChangeRepository, logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if history == nil {
		return nil, fmt.Errorf("status change repository is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	disp := dispatcher.NewDispatcher(dispatcher.WithLogger(&zapLoggerAdapter{logger: logger}))
	dispatcher.RegisterHistory(disp, history)
	return disp, nil
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Storage    *StorageBundle
	Documents  *DocumentBundle
	Writers    []port.TableWriter
	Settings   service.Settings
	Logger     *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Storage == nil || deps.Documents == nil {
		return nil, fmt.Errorf("storage and documents are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	r := deps.Repos
	log := &zapLoggerAdapter{logger: deps.Logger}

	return &ServiceBundle{
		Clients: service.NewClientService(r.Clients, r.Projects, r.Invoices, deps.TxManager, log),
		Projects: service.NewProjectService(r.Projects, r.Clients, r.Invoices,
			deps.TxManager, deps.Dispatcher, deps.Settings, log),
		Invoices: service.NewInvoiceService(r.Invoices, r.Clients, r.Projects, r.Payments, r.StatusChanges,
			deps.TxManager, deps.Dispatcher, deps.Settings, log),
		Payments: service.NewPaymentService(r.Payments, r.Invoices,
			deps.TxManager, deps.Dispatcher, deps.Settings, log),
		Reports: service.NewReportService(r.Clients, r.Projects, r.Invoices, r.Payments, deps.Settings, log),
		Exports: service.NewExportService(r.Clients, r.Projects, r.Invoices,
			deps.Storage.Exports, deps.Writers, deps.Settings, log),
		Documents: service.NewDocumentService(r.Invoices, r.Clients, r.Projects,
			deps.Documents.Renderer, deps.Documents.Inspector, deps.Storage.Documents, log),
	}, nil
}

// ProvideWorkers creates the worker manager. The overdue monitor is registered
// only when an interval is configured.
func ProvideWorkers(cfg *BillingConfig, invoices service.InvoiceService, logger *zap.Logger) (*worker.Manager, *worker.OverdueMonitor, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("billing config is required")
	}
	if invoices == nil {
		return nil, nil, fmt.Errorf("invoice service is required")
	}

	manager := worker.NewManager(logger)
	if cfg.OverdueCheckInterval <= 0 {
		logger.Info("Overdue monitor disabled")
		return manager, nil, nil
	}

	monitor := worker.NewOverdueMonitor(cfg.OverdueCheckInterval, invoices, logger)
	manager.Register(monitor)
	return manager, monitor, nil
}

// monitorHealth reports the last overdue scan error, if any
func monitorHealth(monitor *worker.OverdueMonitor) func(ctx context.Context) error {
	return func(context.Context) error {
		if last := monitor.Stats().LastErr; last != "" {
			return fmt.Errorf("last overdue scan failed: %s", last)
		}
		return nil
	}
}
