// Package http exposes the billing services as a JSON API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/freelance-billing/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Mode is a gin mode: debug, release or test
	Mode string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		Mode:         gin.ReleaseMode,
	}
}

// HealthCheck reports whether one component is usable
type HealthCheck func(ctx context.Context) error

// Services is everything the API serves
type Services struct {
	Clients   service.ClientService
	Projects  service.ProjectService
	Invoices  service.InvoiceService
	Payments  service.PaymentService
	Reports   service.ReportService
	Exports   service.ExportService
	Documents service.DocumentService
	// Health checks are run by GET /health, keyed by component name
	Health map[string]HealthCheck
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, logger Logger) *Server {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: NewHandlers(services, logger),
		logger:   logger,
	}
	server.router.Use(gin.Recovery(), server.loggingMiddleware(), corsMiddleware())
	server.setupRoutes()
	return server
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// corsMiddleware allows browser clients on other origins
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api/v1")
	{
		clients := api.Group("/clients")
		clients.POST("", h.CreateClient)
		clients.GET("", h.ListClients)
		clients.GET("/search", h.SearchClients)
		clients.GET("/:id", h.GetClient)
		clients.PUT("/:id", h.UpdateClient)
		clients.DELETE("/:id", h.DeleteClient)

		projects := api.Group("/projects")
		projects.POST("", h.CreateProject)
		projects.GET("", h.ListProjects)
		projects.GET("/:id", h.GetProject)
		projects.PUT("/:id", h.UpdateProject)
		projects.DELETE("/:id", h.DeleteProject)
		projects.POST("/:id/hours", h.AddHours)
		projects.PUT("/:id/hours", h.CorrectHours)
		projects.GET("/:id/earnings", h.ProjectEarnings)
		projects.POST("/:id/complete", h.CompleteProject)
		projects.POST("/:id/pause", h.PauseProject)
		projects.POST("/:id/resume", h.ResumeProject)
		projects.POST("/:id/cancel", h.CancelProject)

		invoices := api.Group("/invoices")
		invoices.POST("", h.CreateInvoice)
		invoices.GET("", h.ListInvoices)
		invoices.GET("/overdue", h.ListOverdue)
		invoices.GET("/:id", h.GetInvoice)
		invoices.DELETE("/:id", h.DeleteInvoice)
		invoices.POST("/:id/items", h.AddItem)
		invoices.DELETE("/:id/items/:index", h.RemoveItem)
		invoices.POST("/:id/send", h.SendInvoice)
		invoices.POST("/:id/cancel", h.CancelInvoice)
		invoices.GET("/:id/pdf", h.InvoicePDF)
		invoices.POST("/:id/pdf", h.SaveInvoicePDF)
		invoices.GET("/:id/preview", h.InvoicePreview)
		invoices.GET("/:id/payment-status", h.PaymentStatus)
		invoices.GET("/:id/history", h.InvoiceHistory)

		payments := api.Group("/payments")
		payments.POST("", h.RecordPayment)
		payments.GET("", h.ListPayments)
		payments.GET("/:id", h.GetPayment)
		payments.PUT("/:id", h.UpdatePayment)
		payments.DELETE("/:id", h.DeletePayment)
		payments.POST("/:id/complete", h.CompletePayment)
		payments.POST("/:id/fail", h.FailPayment)
		payments.POST("/:id/cancel", h.CancelPayment)

		reports := api.Group("/reports")
		reports.GET("/revenue", h.RevenueReport)
		reports.GET("/aging", h.AgingReport)
		reports.GET("/outstanding", h.OutstandingReport)
		reports.GET("/clients", h.ClientRevenueReport)
		reports.GET("/projects", h.ProjectReport)
		reports.GET("/time", h.TimeReport)
		reports.GET("/monthly", h.MonthlyReport)
		reports.GET("/month", h.MonthReport)
		reports.GET("/status", h.StatusReport)
		reports.GET("/payments", h.PaymentReport)

		api.POST("/exports/:kind", h.Export)
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
