// cmd/storectl/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/cli"
	"storefront/internal/infra/config"
	"storefront/internal/infra/logging"
	"storefront/internal/platform/di"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(newRuntime)
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newRuntime wires storectl against the configured system of record.
func newRuntime(ctx context.Context) (*cli.Runtime, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	// CLI output goes to stdout; keep the logger on warnings.
	logger, err := logging.New("warn", "console")
	if err != nil {
		return nil, nil, err
	}
	cont, err := di.NewContainer(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	rt := &cli.Runtime{
		Products:   cont.ProductUC,
		Roles:      cont.Roles,
		Users:      cont.Users,
		Invalidate: cont.Validator.Invalidate,
		Carts:      cont.CartUC,
		Checker:    cont.Validator,
		CartSource: cont.CartSource,
		Operator:   cfg.OperatorUID,
	}
	release := func() error {
		_ = logger.Sync()
		return cont.Close()
	}
	return rt, release, nil
}
