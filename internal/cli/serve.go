package cli

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

	"github.com/spf13/cobra"

	"github.com/N474NR4/UCHI-Subaru/internal/api"
	"github.com/N474NR4/UCHI-Subaru/internal/imaging"
	"github.com/N474NR4/UCHI-Subaru/internal/store"
	"github.com/N474NR4/UCHI-Subaru/internal/web"
)

// imagePrefix is the URL path uploaded images are served under.
const imagePrefix = "/images/"

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the inventory pages and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts)
		},
	}

	cmd.Flags().StringVarP(&rootOpts.Config.Addr, "addr", "a", rootOpts.Config.Addr, "listen address")
	cmd.Flags().StringVar(&rootOpts.Config.ImageDir, "images", rootOpts.Config.ImageDir, "directory for uploaded images")

	return cmd
}

func runServe(ctx context.Context, opts *RootOptions) error {
	cfg := opts.Config

	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	slog.Info("database ready", "backend", cfg.Backend, "path", cfg.DBPath)

	images, err := imaging.NewLibrary(cfg.ImageDir, imagePrefix)
	if err != nil {
		return err
	}

	handler, err := newHandler(s, images)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return serveUntil(server, quit)
}

// serveUntil runs server until a value arrives on quit, then waits for
// in-flight requests to finish before returning.
func serveUntil(server *http.Server, quit <-chan os.Signal) error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serving: %w", err)
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		server.Close()
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// newHandler combines the API and page routers. API routes take priority,
// web routes handle the rest.
func newHandler(s *store.Store, images *imaging.Library) (http.Handler, error) {
	webRouter, err := web.NewRouter(s, images)
	if err != nil {
		return nil, fmt.Errorf("setting up web router: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", api.NewRouter(s))
	mux.Handle("/", webRouter)

	return api.LoggingMiddleware(mux), nil
}
