package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fekuna/speakeasy-board-service/internal/board/events"
	"github.com/fekuna/speakeasy-board-service/internal/board/handler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the board API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg, log := a.cfg, a.logger

	if cfg.Kafka.Enabled() {
		publisher := events.NewPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), log, 256)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Warn("Failed to close Kafka writer", zap.Error(err))
			}
		}()
		unsubscribe := a.store.Subscribe(publisher.Handle)
		defer unsubscribe()
		go publisher.Start(ctx)
		log.Info("Publishing board events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	if err := a.store.Watch(ctx, a.session); err != nil {
		log.Warn("Initial board load failed, serving fallback board", zap.Error(err))
	}

	h := handler.NewBoardHandler(a.store, a.session, log)
	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler.NewRouter(h, log, cfg.Server.RequestTimeout),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	a.store.WaitPersisted()
	log.Info("Server stopped")
	return nil
}
