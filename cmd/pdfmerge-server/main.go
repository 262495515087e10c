// Command pdfmerge-server serves the merge API over HTTP.
//
// Settings are read from config.yml in the working directory and from
// PDFMERGE_* environment variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lvillar/pdfmerge/api"
	"github.com/lvillar/pdfmerge/config"
	"github.com/lvillar/pdfmerge/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pdfmerge-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(log)

	sessions := session.NewManager(cfg.Merge(), cfg.Session.MaxAge, cfg.Session.SweepInterval, log)
	if err := sessions.Start(); err != nil {
		return fmt.Errorf("starting session sweep: %w", err)
	}
	defer sessions.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.NewServer(sessions, cfg.Upload.MaxBytes, log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info("starting web server", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
