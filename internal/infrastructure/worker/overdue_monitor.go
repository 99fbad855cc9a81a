package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/freelance-billing/internal/domain/entity"
)

// OverdueLister is the slice of the invoice service the monitor needs
type OverdueLister interface {
	ListOverdue(ctx context.Context) ([]*entity.Invoice, error)
}

// OverdueStats is the result of the most recent scan
type OverdueStats struct {
	LastScan time.Time       `json:"last_scan"`
	Count    int             `json:"overdue_invoices"`
	Amount   decimal.Decimal `json:"overdue_amount"`
	Scans    int             `json:"scans"`
	LastErr  string          `json:"last_error,omitempty"`
}

// OverdueMonitor periodically scans for overdue invoices and logs each one.
// Overdue is never written back; the scan only reports.
type OverdueMonitor struct {
	interval time.Duration
	invoices OverdueLister
	logger   *zap.Logger

	mu        sync.RWMutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
	stats     OverdueStats
}

func NewOverdueMonitor(interval time.Duration, invoices OverdueLister, logger *zap.Logger) *OverdueMonitor {
	return &OverdueMonitor{
		interval: interval,
		invoices: invoices,
		logger:   logger,
		stats:    OverdueStats{Amount: decimal.Zero},
	}
}

func (w *OverdueMonitor) Name() string { return "OverdueMonitor" }

// Start scans once immediately, then every interval until ctx ends or Stop is called
func (w *OverdueMonitor) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return fmt.Errorf("overdue monitor interval must be positive, got %s", w.interval)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isRunning {
		return fmt.Errorf("overdue monitor already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.isRunning = true

	go w.loop(runCtx, w.done)
	return nil
}

// Stop cancels the loop and waits for an in-flight scan to finish
func (w *OverdueMonitor) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	stats := w.Stats()
	w.logger.Info("OverdueMonitor stopped", zap.Int("scans", stats.Scans))
	return nil
}

// Stats returns a copy of the latest scan result
func (w *OverdueMonitor) Stats() OverdueStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *OverdueMonitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Scan(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Scan(ctx)
		}
	}
}

// Scan runs one pass and records its stats
func (w *OverdueMonitor) Scan(ctx context.Context) {
	overdue, err := w.invoices.ListOverdue(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.Scans++
	w.stats.LastScan = time.Now().UTC()

	if err != nil {
		w.stats.LastErr = err.Error()
		w.logger.Error("Overdue scan failed", zap.Error(err))
		return
	}

	total := decimal.Zero
	for _, inv := range overdue {
		total = total.Add(inv.TotalAmount())
		w.logger.Warn("Invoice overdue",
			zap.Int64("invoice_id", inv.ID),
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.Time("due_date", inv.DueDate),
			zap.String("amount", inv.TotalAmount().String()))
	}
	w.stats.Count = len(overdue)
	w.stats.Amount = total
	w.stats.LastErr = ""

	if len(overdue) > 0 {
		w.logger.Info("Overdue scan complete",
			zap.Int("overdue_invoices", len(overdue)),
			zap.String("overdue_amount", total.String()))
	}
}
