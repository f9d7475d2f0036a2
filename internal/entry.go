// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/notekeeper/internal/api"
	"github.com/starford/notekeeper/internal/events"
	"github.com/starford/notekeeper/internal/keeper"
	"github.com/starford/notekeeper/internal/mcpserver"
	"github.com/starford/notekeeper/internal/share"
	"github.com/starford/notekeeper/internal/shell"
	"github.com/starford/notekeeper/internal/storage"
	"github.com/starford/notekeeper/internal/vault"
)

// runtime is what every command needs: logger, store and services.
// db is nil when the store is in memory.
type runtime struct {
	cfg    *Config
	logger *slog.Logger
	db     *storage.SQLite
	svc    *keeper.Services
}

func (r *runtime) close() {
	if r.db == nil {
		return
	}
	if err := r.db.Close(); err != nil {
		r.logger.Error("sqlite close failed", slog.String("error", err.Error()))
	}
}

func (r *runtime) ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return r.db.Ping(ctx)
}

func openStore(ctx context.Context, cfg SQLiteConfig) (storage.Gateway, *storage.SQLite, error) {
	if cfg.InMemory() {
		return storage.NewMemory(), nil, nil
	}
	db, err := storage.OpenSQLite(ctx, cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	return db, db, nil
}

func newApplication(opts []Option) (*application, error) {
	app := &application{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// bootstrap builds the logger, opens the database and wires the services.
// Logs go to logOut as JSON.
func (a *application) bootstrap(ctx context.Context, logOut io.Writer, extra ...keeper.Option) (*runtime, error) {
	cfg := a.config

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	loc, err := cfg.App.Location()
	if err != nil {
		return nil, err
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("vault_inbox", cfg.Vault.Inbox),
		slog.String("timezone", loc.String()),
		slog.Bool("sms_enabled", cfg.SMS.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	gw, db, err := openStore(ctx, cfg.SQLite)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	opts := []keeper.Option{
		keeper.WithBcryptCost(cfg.Security.BcryptCost),
		keeper.WithAtomicMoves(cfg.Security.AtomicTrashMoves),
		keeper.WithLocation(loc),
		keeper.WithLogger(logger),
	}
	if cfg.SMS.Enabled {
		opts = append(opts, keeper.WithSender(&share.Twilio{
			AccountSID: cfg.SMS.AccountSID,
			AuthToken:  cfg.SMS.AuthToken,
			From:       cfg.SMS.From,
			BaseURL:    cfg.SMS.BaseURL,
			Client:     &http.Client{Timeout: 15 * time.Second},
		}, cfg.SMS.To))
	}
	opts = append(opts, extra...)

	return &runtime{cfg: cfg, logger: logger, db: db, svc: keeper.New(gw, opts...)}, nil
}

// Run starts the HTTP server, the event stream and the inbox watcher.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	broker := events.NewBroker(events.WithHeartbeat(30 * time.Second))
	defer broker.Close()

	rt, err := app.bootstrap(ctx, app.stdout, keeper.WithNotifier(broker))
	if err != nil {
		return err
	}
	defer rt.close()
	cfg, logger := rt.cfg, rt.logger

	apiRouter := api.NewRouter(rt.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := rt.ping(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Vault.Inbox != "" {
		inbox, err := vault.NewFS(cfg.Vault.Inbox)
		if err != nil {
			return fmt.Errorf("init inbox: %w", err)
		}
		importer := vault.NewImporter(inbox, rt.svc.Notes, rt.svc.Tags, logger)
		g.Go(func() error {
			return importer.Watch(gCtx)
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunShell starts the interactive shell on the configured streams. Logs go
// to stderr.
func RunShell(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := app.bootstrap(ctx, app.stderr)
	if err != nil {
		return err
	}
	defer rt.close()

	fd := -1
	if f, ok := app.stdin.(*os.File); ok {
		fd = int(f.Fd())
	}
	in := shell.NewInput(app.stdin, app.stdout, fd)
	return shell.New(rt.svc, in, app.stdout, rt.logger).Run(ctx)
}

// RunMCP serves MCP tools over stdio. Logs go to stderr.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := app.bootstrap(ctx, app.stderr)
	if err != nil {
		return err
	}
	defer rt.close()

	rt.logger.Info("MCP server starting on stdio")
	return mcpserver.New(rt.svc).ServeStdio()
}

// RunExport writes the active notes into the vault once and prints the
// report.
func RunExport(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := app.bootstrap(ctx, app.stderr)
	if err != nil {
		return err
	}
	defer rt.close()

	fs, err := vault.NewFS(rt.cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init vault: %w", err)
	}
	rep, err := vault.NewExporter(fs, rt.svc.Notes, rt.svc.Tags, rt.svc.Location, rt.logger).Export(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(app.stdout, "exported to %s: %d written, %d unchanged, %d removed\n",
		fs.Root(), rep.Written, rep.Unchanged, rep.Removed)
	return err
}
