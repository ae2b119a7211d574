package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mediaup/internal/config"
	"mediaup/internal/handoff"
	"mediaup/internal/store"
	"mediaup/internal/stub"

	"cloud.google.com/go/pubsub"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		fatal("failed to load config", "err", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.ParseLevel(cfg.LogLevel),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var members []store.Member
	if cfg.MembersSeed != "" {
		members, err = store.LoadMembers(cfg.MembersSeed)
		if err != nil {
			fatal("failed to load members seed", "err", err)
		}
		slog.Info("loaded members seed", "path", cfg.MembersSeed, "count", len(members))
	}

	var st stub.Store
	if cfg.ReportDBDSN != "" {
		db, err := store.Open(cfg.ReportDBDSN)
		if err != nil {
			fatal("failed to open report db", "err", err)
		}
		defer db.Close()
		if err := store.Init(db); err != nil {
			fatal("failed to initialise report db", "err", err)
		}
		sqlStore := store.NewSQL(db)
		if err := sqlStore.SeedMembers(ctx, members); err != nil {
			fatal("failed to seed members", "err", err)
		}
		st = sqlStore
	} else {
		slog.Warn("REPORT_DB_DSN not set, keeping members and reports in memory")
		st = store.NewMemory(members...)
	}

	var notifier handoff.Notifier
	if cfg.PubSubTopic != "" {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.GCPProjectID)
		if err != nil {
			fatal("failed to create pubsub client", "err", err)
		}
		defer pubsubClient.Close()

		if cfg.PubSubMode == "emulator" {
			if err := handoff.EnsureTopicWithRetry(ctx, pubsubClient, cfg.PubSubTopic, 10, 500*time.Millisecond); err != nil {
				fatal("failed to ensure pubsub topic", "err", err)
			}
		}
		topic := pubsubClient.Topic(cfg.PubSubTopic)
		defer topic.Stop()
		notifier = handoff.NewPublisher(topic)
	}

	swagger, err := stub.LoadSpec(ctx, cfg.OpenAPISpecPath)
	if err != nil {
		fatal("failed to load openapi spec", "err", err)
	}

	srv := stub.New(st, nil, notifier)
	srv.MaxMemory = cfg.MaxMemory

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(swagger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("stub server listening", "addr", httpServer.Addr, "tls", cfg.TLSCertFile != "")
		if cfg.TLSCertFile != "" {
			errCh <- httpServer.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			fatal("stub server failed", "err", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down stub server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "err", err)
		}
	}
}

func fatal(msg string, attrs ...any) {
	slog.Error(msg, attrs...)
	os.Exit(1)
}
