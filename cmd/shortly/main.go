package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"

	"github.com/go-chi/httplog/v2"
	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/shortly/internal/config"
	"github.com/vadimbarashkov/shortly/internal/database/postgres"
	"github.com/vadimbarashkov/shortly/internal/ratelimit"
	"github.com/vadimbarashkov/shortly/internal/service"
	"golang.org/x/sync/errgroup"

	myhttp "github.com/vadimbarashkov/shortly/internal/api/http"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		panic(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	db, err := postgres.New(cfg.Postgres.DSN())
	if err != nil {
		return err
	}
	db.SetConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime)
	db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	g.Go(func() error {
		<-ctx.Done()
		return db.Close()
	})

	if err := postgres.RunMigrations("file://migrations", cfg.Postgres.DSN()); err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	g.Go(func() error {
		<-ctx.Done()
		return rdb.Close()
	})

	limiter := ratelimit.NewFixedWindowLimiter(ratelimit.NewRedisCounterStore(rdb), cfg.RateLimit.Window)

	urlRepo := postgres.NewURLRepository(db)
	urlSvc := service.NewURLService(urlRepo, limiter, service.Config{
		CodeLength:         cfg.ShortCodeLength,
		AliasMinLength:     cfg.Alias.MinLength,
		AliasMaxLength:     cfg.Alias.MaxLength,
		AnonymousLimit:     cfg.RateLimit.AnonymousLimit,
		AuthenticatedLimit: cfg.RateLimit.AuthenticatedLimit,
	})

	r := myhttp.NewRouter(httplog.NewLogger("shortly"), urlSvc, cfg.BaseURL)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        r,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g.Go(func() error {
		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return server.Shutdown(context.Background())
	})

	return g.Wait()
}
