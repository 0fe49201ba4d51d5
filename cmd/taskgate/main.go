package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"git.sr.ht/~jakintosh/taskgate/internal/api"
	"git.sr.ht/~jakintosh/taskgate/internal/authn"
	"git.sr.ht/~jakintosh/taskgate/internal/config"
	"git.sr.ht/~jakintosh/taskgate/internal/database"
	"git.sr.ht/~jakintosh/taskgate/internal/metrics"
	"git.sr.ht/~jakintosh/taskgate/internal/policy"
	"git.sr.ht/~jakintosh/taskgate/internal/service"
	"git.sr.ht/~jakintosh/taskgate/pkg/tokens"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var configPath string
	var generateSecret bool

	flagSet := pflag.NewFlagSet("taskgate", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to YAML config file (default: $TASKGATE_CONFIG or ./taskgate.yaml)")
	flagSet.BoolVar(&generateSecret, "generate-secret", false, "print a new random signing secret and exit")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if generateSecret {
		secret, err := tokens.GenerateSecret()
		if err != nil {
			return err
		}
		fmt.Println(secret)
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	// the process cannot run safely without a valid key
	keys, err := tokens.NewKeyHolder(cfg.Auth.Secret)
	if err != nil {
		return fmt.Errorf("auth.secret: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.Path, cfg.Database.DSN, cfg.Database.MaxConns)
	if err != nil {
		return fmt.Errorf("opening %s database: %w", cfg.Database.Driver, err)
	}
	defer store.Close()

	tokenService := tokens.NewService(keys)
	svc := service.New(store, tokenService, service.PasswordModeProduction,
		service.WithPasswordCost(cfg.Auth.PasswordCost))
	filter := authn.NewFilter(tokenService, store, logger)
	a := api.New(svc, filter, policy.NewTable(policy.DefaultRules, logger), logger)

	servers := []*http.Server{{
		Addr:         cfg.Server.Addr,
		Handler:      a.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}}
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		servers = append(servers, &http.Server{
			Addr:        cfg.Server.MetricsAddr,
			Handler:     mux,
			ReadTimeout: cfg.Server.ReadTimeout,
		})
	}

	return serve(ctx, logger, servers, cfg.Server.ShutdownTimeout)
}

// serve runs every server until ctx is cancelled or one of them fails, then
// shuts all of them down within timeout.
func serve(
	ctx context.Context,
	logger *slog.Logger,
	servers []*http.Server,
	timeout time.Duration,
) error {
	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			logger.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "addr", srv.Addr, "error", err)
		}
	}
	return runErr
}

func newLogger(cfg config.LogConfig, w *os.File) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
