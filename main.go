package main

import (
	"context"
	"errors"
	"fmt"
	"healthhelper/internal/commands"
	"healthhelper/internal/config"
	"healthhelper/internal/logger"
	sentryutil "healthhelper/internal/sentry"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Report panics before anything else is deferred
	defer sentryutil.Recover()

	// Load configuration from .env and environment variables
	config.Load()
	logger.Configure(config.Cfg.LogLevel, config.Cfg.LogFormat)

	// Initialize Sentry (non-blocking if SENTRY_DSN is empty)
	sentryutil.Init()
	defer sentryutil.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Root().Run(ctx, os.Args); err != nil {
		if errors.Is(err, context.Canceled) {
			return 130
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
