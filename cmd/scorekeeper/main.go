package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/scorekeeper/internal/adapters/http/api"
	"github.com/okian/scorekeeper/internal/adapters/http/swagger"
	"github.com/okian/scorekeeper/internal/config"
	"github.com/okian/scorekeeper/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	logOpts := []logger.InitOption{logger.WithFormat(cfg.LogFormat)}
	if cfg.LogFile != "" {
		logOpts = append(logOpts, logger.WithFile(cfg.LogFile))
	}
	if err := logger.Init(logOpts...); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "startup failed", logger.Error(err))
		return 1
	}
	defer app.Close()

	return execute(ctx, cfg, app, log)
}

// execute runs the replay and, when configured, serves the result. A run that
// completed but could not be saved everywhere is still served from memory;
// the process then exits non-zero.
func execute(ctx context.Context, cfg *config.Config, app *App, log logger.Logger) int {
	code := 0
	result, err := app.Execute(ctx)
	switch {
	case errors.Is(err, ErrPersist):
		log.Error(ctx, "persisting run failed", logger.Error(err))
		code = 1
	case err != nil:
		log.Error(ctx, "replay failed", logger.Error(err))
		return 1
	default:
		log.Info(ctx, "replay succeeded",
			logger.String("run_id", result.ID.String()),
			logger.Int("players", len(result.Export.Players)),
			logger.Int("days", len(result.Export.ScoreHistory)))
	}

	if !cfg.Serve {
		return code
	}
	if err := serve(ctx, cfg, app, log); err != nil {
		log.Error(ctx, "HTTP server failed", logger.Error(err))
		return 1
	}
	return code
}

// serve exposes the read API until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, app *App, log logger.Logger) error {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	apiServer := api.NewServer(app.Store(), api.StatsFunc(func() any { return app.Replayer().Stats() }), cfg.MaxLeaderboardLimit)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}
