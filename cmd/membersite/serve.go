package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"membersite/internal/config"
	applog "membersite/internal/log"
	"membersite/internal/metrics"
	"membersite/internal/repos"
	"membersite/internal/secure"
	"membersite/internal/server"
	"membersite/internal/services"
	"membersite/internal/session"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		RunE:  runServe,
	}
	cmd.Flags().String("port", "", "listen port")
	cmd.Flags().String("session-store", "", "session backend: sql or redis")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	logger, err := applog.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("level", cfg.Log.Level).Wrap(err)
	}
	applog.SetLogger(logger)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repos.OpenDB(ctx, cfg.Store)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("driver", cfg.Store.Driver).Wrap(err)
	}
	defer db.Close()

	storage, err := sessionStorage(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer storage.Close()

	m := metrics.New()
	app, err := server.New(server.Deps{
		Config:   cfg,
		Auth:     services.NewAuthService(repos.NewUserRepo(db), services.NewBcryptHasher(cfg.Auth.BcryptCost)),
		Sessions: session.New(storage, session.Config{TTL: cfg.Session.TTL, CookieSecure: cfg.HTTP.CookieSecure}),
		Metrics:  m,
		DB:       db,
	})
	if err != nil {
		return err
	}

	addr := net.JoinHostPort("", cfg.HTTP.Port)
	errc := make(chan error, 1)
	go func() { errc <- app.Listen(addr) }()
	logger.Info("server.start",
		zap.String("addr", addr),
		zap.String("store", cfg.Store.Driver),
		zap.String("sessions", cfg.Session.Backend),
		zap.Bool("sealed", cfg.Session.StoreSecret != ""),
		zap.Bool("dev", cfg.Dev),
	)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("server.shutdown")
	return app.ShutdownWithTimeout(server.ShutdownTimeout)
}

// sessionStorage builds the configured session backend, sealing records at
// rest when a store secret is set. The SQL backend's GC stops with ctx.
func sessionStorage(ctx context.Context, cfg config.Config, db *sqlx.DB) (fiber.Storage, error) {
	var st fiber.Storage
	switch cfg.Session.Backend {
	case "redis":
		rs := repos.NewRedisSessionStore(cfg.Session.RedisAddr, cfg.Session.RedisDB)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, oops.Code("SESSION_STORE").With("addr", cfg.Session.RedisAddr).Wrap(err)
		}
		st = rs
	default:
		ss := repos.NewSessionStore(db)
		go ss.RunGC(ctx, cfg.Session.GCInterval)
		st = ss
	}
	if cfg.Session.StoreSecret != "" {
		sealer, err := secure.NewSealer(cfg.Session.StoreSecret)
		if err != nil {
			return nil, oops.Code("SESSION_STORE").Wrap(err)
		}
		st = &repos.SealedStorage{Storage: st, Sealer: sealer}
	}
	return st, nil
}
