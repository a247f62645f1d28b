package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jimiolaniyan/accounts/auth"
	"github.com/jimiolaniyan/accounts/auth/postgres"
	"github.com/jimiolaniyan/accounts/config"
	"github.com/jimiolaniyan/accounts/logging"
	"github.com/jimiolaniyan/accounts/mail"
	"github.com/jimiolaniyan/accounts/ratelimit"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 15 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.Setup("accounts", version, cfg.LogFormat, cmd.ErrOrStderr())
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := serve(ctx, cfg, logger); err != nil {
				logging.LogError(logger, "server stopped", err)
				return err
			}
			return nil
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	accounts, closeStore, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	issuer, err := auth.NewJWTIssuer([]byte(cfg.JWTSecret))
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "create session issuer").Wrap(err)
	}

	svc := auth.NewService(
		accounts,
		auth.NewBcryptHasher(cfg.BcryptCost),
		auth.NewTokenGenerator(),
		issuer,
		newMailer(cfg.Mail, logger),
		cfg.FrontendURL,
		logger,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	rt := routes{
		svc:      svc,
		sessions: issuer,
		metrics:  auth.NewMetrics(reg),
		gatherer: reg,
	}
	if cfg.RateLimit.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RateLimit.RedisAddr})
		defer func() { _ = rdb.Close() }()

		rl := cfg.RateLimit
		trusted, err := ratelimit.ParseTrustedProxies(rl.TrustedProxies)
		if err != nil {
			return err
		}
		rt.signup = ratelimit.Middleware(ratelimit.New(rdb, "signup", rl.Signup, rl.Window), trusted, logger)
		rt.login = ratelimit.Middleware(ratelimit.New(rdb, "login", rl.Login, rl.Window), trusted, logger)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(rt),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", cfg.HTTPAddr, "store", cfg.Store)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return oops.Code("SERVE_FAILED").With("addr", cfg.HTTPAddr).Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}
	return nil
}

func openRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (auth.Repository, func(), error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch cfg.Store {
	case config.StoreMongo:
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, auth.StoreError("connect mongo", err)
		}
		if err := client.Ping(connectCtx, nil); err != nil {
			return nil, nil, auth.StoreError("ping mongo", err)
		}

		repo := auth.NewMongoAccountRepository(client.Database(cfg.MongoDatabase).Collection("accounts"))
		if err := repo.EnsureIndexes(connectCtx); err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = client.Disconnect(context.Background()) }, nil

	case config.StorePostgres:
		pool, err := pgxpool.New(connectCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, auth.StoreError("connect postgres", err)
		}
		if err := pool.Ping(connectCtx); err != nil {
			pool.Close()
			return nil, nil, auth.StoreError("ping postgres", err)
		}
		return postgres.NewAccountRepository(pool), pool.Close, nil

	default:
		logger.Warn("using in-memory account store; accounts are lost on restart")
		return auth.NewAccountRepository(), func() {}, nil
	}
}

func newMailer(cfg config.Mail, logger *slog.Logger) auth.Mailer {
	if cfg.Host == "" {
		return mail.NewLogMailer(logger)
	}
	return mail.NewSMTPMailer(cfg.Host, cfg.Port, cfg.User, cfg.Pass, cfg.From, cfg.Timeout)
}
