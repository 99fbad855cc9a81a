package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/freelance-billing/internal/config"
	"github.com/garyjia/freelance-billing/internal/container"
	httpapi "github.com/garyjia/freelance-billing/internal/interfaces/http"
	"github.com/garyjia/freelance-billing/pkg/utils"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(serve).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCommand parses flags and hands the resolved config path to run
func newRootCommand(run func(ctx context.Context, configPath string) error) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:           "billing-server",
		Short:         "Serve the freelance billing HTTP API",
		Version:       httpapi.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfigPath(configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			return run(cmd.Context(), path)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to the YAML configuration file")
	return cmd
}

// resolveConfigPath returns "" (defaults and environment only) when the default
// file is absent. An explicitly requested file must exist.
func resolveConfigPath(path string, explicit bool) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) || explicit {
			return "", fmt.Errorf("config file %s: %w", path, err)
		}
		return "", nil
	}
	return path, nil
}

func serve(ctx context.Context, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting Freelance Billing service",
		zap.String("version", httpapi.Version),
		zap.String("config", path),
		zap.Int("port", cfg.Server.Port))

	app, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		logger.Error("Failed to create container", zap.Error(err))
		return err
	}
	if err := app.Start(ctx); err != nil {
		logger.Error("Failed to start container", zap.Error(err))
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Container shutdown failed", zap.Error(err))
		}
	}()

	health := make(map[string]httpapi.HealthCheck)
	for name, check := range app.HealthChecks() {
		health[name] = httpapi.HealthCheck(check)
	}

	svc := app.Services()
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Mode:         cfg.Server.Mode,
	}, httpapi.Services{
		Clients:   svc.Clients,
		Projects:  svc.Projects,
		Invoices:  svc.Invoices,
		Payments:  svc.Payments,
		Reports:   svc.Reports,
		Exports:   svc.Exports,
		Documents: svc.Documents,
		Health:    health,
	}, app.ServiceLogger())

	// Start blocks until the context is cancelled, then shuts the server down gracefully
	if err := server.Start(ctx); err != nil {
		logger.Error("HTTP server stopped with error", zap.Error(err))
		return err
	}

	logger.Info("Server exited successfully")
	return nil
}
