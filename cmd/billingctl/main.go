package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/garyjia/freelance-billing/internal/config"
	"github.com/garyjia/freelance-billing/internal/container"
	"github.com/garyjia/freelance-billing/internal/interfaces/cli"
	"github.com/garyjia/freelance-billing/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(open, os.Stdout)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// open starts a container without background workers for one command
func open(ctx context.Context, path string) (*cli.Session, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	// container chatter stays off the terminal unless debugging
	level := "warn"
	if cfg.Logger.Level == "debug" {
		level = "debug"
	}
	logger, err := utils.NewLogger(utils.LoggerConfig{Level: level, OutputPath: "stderr", Format: "console"})
	if err != nil {
		return nil, err
	}

	cc := cfg.ToContainerConfig()
	cc.Billing.OverdueCheckInterval = 0

	app, err := container.NewContainer(cc, logger)
	if err != nil {
		return nil, err
	}
	if err := app.Start(ctx); err != nil {
		return nil, err
	}

	svc := app.Services()
	return &cli.Session{
		Services: cli.Services{
			Clients:   svc.Clients,
			Projects:  svc.Projects,
			Invoices:  svc.Invoices,
			Payments:  svc.Payments,
			Reports:   svc.Reports,
			Exports:   svc.Exports,
			Documents: svc.Documents,
		},
		Currency: cc.Billing.Currency,
		Limits:   cc.Billing.Limits,
		Close: func() error {
			defer logger.Sync()
			return app.Close()
		},
	}, nil
}
