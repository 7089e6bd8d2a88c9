package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fastygo/shoplist/internal/cli"
	"github.com/fastygo/shoplist/internal/config"
	"github.com/fastygo/shoplist/internal/services/lifecycle"
	"github.com/fastygo/shoplist/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 1
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: "console",
		Output:   os.Stderr,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer zapLogger.Sync()

	ctx, stop := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger).SignalContext(context.Background())
	defer stop()

	root := cli.NewRootCommand(&cli.App{
		Open: cli.DefaultOpener(cfg, zapLogger),
		Out:  os.Stdout,
		Err:  os.Stderr,
	})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
