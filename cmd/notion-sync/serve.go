package main

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/spf13/cobra"

	"github.com/notion-mdx-sync/internal/api"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the sync API and process queued and scheduled runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

// runServe blocks until ctx is cancelled, then drains the processor and
// shuts the HTTP server down.
func runServe(ctx context.Context) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	log.Info().Msg("Starting notion-sync server...")

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	// procCtx stops the processor even if it has not marked itself running yet.
	procCtx, stopProc := context.WithCancel(ctx)
	defer stopProc()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.services.Run.StartProcessor(procCtx)
	}()
	log.Info().Dur("interval", cfg.Sync.Interval).Msg("Background run processor started")

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(a.services, cfg, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			stopProc()
			wg.Wait()
			return err
		}
	}
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	stopProc()
	a.services.Run.StopProcessor()
	wg.Wait()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("Server exited gracefully")
	return nil
}
