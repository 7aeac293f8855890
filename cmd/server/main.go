package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"quoteprovider/internal/config"
	"quoteprovider/internal/httpx"
	"quoteprovider/internal/logging"
	"quoteprovider/internal/provider"
	"quoteprovider/internal/quotes"
	"quoteprovider/internal/upstream"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	httpClient := httpx.New(cfg.RequestTimeout())
	up := upstream.Build(cfg, httpClient, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           newHandler(cfg, up, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout() + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("mode", cfg.Quotes.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newHandler mounts the routes on one upstream. /api/quotes is the client
// endpoint; /quotes exposes the upstream as a batch service.
func newHandler(cfg config.Config, up provider.Provider, logger *zap.Logger) http.Handler {
	svc := quotes.NewService(up, logger)
	svc.MaxSymbols = cfg.Quotes.MaxSymbols

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/api/quotes", &quotes.Handler{Service: svc, Timeout: cfg.RequestTimeout()})
	mux.Handle("/quotes", &quotes.BatchHandler{Upstream: up, Logger: logger})

	return withRequestLog(logger, withJSONHeaders(cfg.Server.AllowedOrigins, withGzip(recoverPanic(logger, limitBody(mux)))))
}
