package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/internal/httpapi"
	"github.com/MrEthical07/authcore/session"
	"github.com/MrEthical07/authcore/storage"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	defaults := defaultCLIConfig()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the authentication API over HTTP",
		Long: `Serve register, login, logout, CSRF and admin status endpoints, with
Prometheus metrics on /metrics. SIGINT or SIGTERM drains open requests
before exiting.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().String("server.addr", defaults.Server.Addr, "listen address")
	cmd.Flags().Bool("server.insecure_cookie", defaults.Server.InsecureCookie, "omit the Secure cookie attribute (plain HTTP development only)")
	cmd.Flags().Bool("server.auto_migrate", defaults.Server.AutoMigrate, "apply migrations before serving")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Auth.Session.TicketKey == "" {
		return oops.Code("CONFIG_INVALID").Errorf("auth.session.ticket_key or %s is required to serve", ticketKeyEnv)
	}
	logger := cfg.logger(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Server.AutoMigrate {
		if err := storage.Migrate(ctx, db, logger); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "auto-migrate").Wrap(err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	builder := authcore.New().
		WithConfig(cfg.Auth).
		WithDB(db).
		WithLogger(logger).
		WithMetricsRegisterer(registry)

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return oops.Code("REDIS_CONNECT_FAILED").With("addr", cfg.Redis.Addr).Wrap(err)
		}
		builder.WithRedis(client)
	} else {
		logger.Warn("redis.addr not set; sessions are kept in process memory")
		builder.WithSessionStore(session.NewMemoryStore(nil))
	}

	engine, err := builder.Build()
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "build engine").Wrap(err)
	}
	defer engine.Close()

	listener, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return oops.Code("LISTEN_FAILED").With("addr", cfg.Server.Addr).Wrap(err)
	}

	srv := &http.Server{
		Handler: httpapi.New(engine, httpapi.Options{
			Gatherer:       registry,
			InsecureCookie: cfg.Server.InsecureCookie,
			CookieMaxAge:   cfg.Auth.Session.TicketMaxAge,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()
	logger.Info("server started", "addr", listener.Addr().String())

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("SERVE_FAILED").Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.With("operation", "shutdown").Wrap(err)
	}
	return nil
}
