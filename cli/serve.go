package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"roster-server-go/db"
	"roster-server-go/handlers"
)

const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	Addr string
	Seed bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(root *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&opts.Seed, "seed", false, "add demo classes and students when the database is empty")

	return cmd
}

func runServe(ctx context.Context, root *RootOptions, opts *ServeOptions) error {
	cfg, logger, err := root.load()
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.Seed {
		if _, err := db.SeedIfEmpty(ctx, a.classes, a.students, logger); err != nil {
			logger.Warn("could not add seed data", "error", err)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	apiHandler := handlers.NewAPIHandler(a.classes, a.students, a.db, handlers.Options{
		AppName: cfg.Server.AppName,
		Paging: handlers.PagingConfig{
			DefaultSize: cfg.Server.DefaultPageSize,
			MaxSize:     cfg.Server.MaxPageSize,
		},
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handlers.NewRouter(apiHandler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
