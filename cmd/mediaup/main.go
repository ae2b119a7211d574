package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"mediaup/internal/result"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := RootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		// Failures were already printed by the reporter.
		var failure *result.Failure
		if !errors.As(err, &failure) {
			slog.Error("mediaup failed", "err", err)
		}
		os.Exit(1)
	}
}
