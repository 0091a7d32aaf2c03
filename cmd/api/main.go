package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	redisguard "hairy-paws/internal/adapters/cache/redis"
	"hairy-paws/internal/adapters/auth/jwt"
	"hairy-paws/internal/adapters/messaging/rabbitmq"
	"hairy-paws/internal/adapters/storage/minio"
	"hairy-paws/internal/adapters/storage/postgres"
	"hairy-paws/internal/adapters/storage/postgres/migrations"
	"hairy-paws/internal/config"
	"hairy-paws/internal/domain/users"
	"hairy-paws/internal/platform/logger"
	"hairy-paws/internal/router"
)

// @title HairyPaws API
// @version 1.0
// @description Backend de adopción de mascotas: usuarios, animales y solicitudes de adopción o visita.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer <token>
func main() {
	configPath := flag.String("config", "", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.NewFromEnv().Error("config load failed", map[string]any{"err": err})
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.App.Name,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", map[string]any{"err": err})
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	tokens, err := jwt.New(jwt.Config{
		Secret: cfg.Auth.JWTSecret,
		TTL:    cfg.Auth.TokenTTL,
		Issuer: cfg.Auth.Issuer,
	})
	if err != nil {
		return err
	}
	if cfg.Env != "local" && cfg.Auth.JWTSecret == "change-me" {
		log.Warn("JWT_SECRET is the default value", map[string]any{"env": cfg.Env})
	}

	opts := router.Options{
		AuthVerifier:    tokens,
		TokenIssuer:     tokens,
		Logger:          log,
		APIPrefix:       cfg.App.APIPrefix,
		AppName:         cfg.App.Name,
		AppVersion:      cfg.App.Version,
		LoginFailLimit:  cfg.Auth.LoginFailLimit,
		LoginFailTTL:    cfg.Auth.LoginFailLockTTL,
		LoginRatePerSec: cfg.Auth.LoginRatePerSec,
		LoginRateBurst:  cfg.Auth.LoginRateBurst,
		MaxImageBytes:   cfg.Uploads.MaxImageBytes,
		CORSOrigins:     cfg.CORS.Origins,
	}
	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		opts.Admin = &users.RegisterInput{Email: cfg.Auth.AdminEmail, Password: cfg.Auth.AdminPassword}
	}

	if dsn := strings.TrimSpace(cfg.DB.DSN); dsn != "" {
		db, err := openDB(ctx, dsn, log)
		if err != nil {
			return err
		}
		defer db.Close()
		opts.DB = db
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	if url := strings.TrimSpace(cfg.Redis.URL); url != "" {
		guard, err := redisguard.New(ctx, url, cfg.Auth.LoginFailLimit, cfg.Auth.LoginFailLockTTL)
		if err != nil {
			return err
		}
		defer guard.Close()
		opts.LoginGuard = guard
		log.Info("login lockout backed by redis", nil)
	}

	if url := strings.TrimSpace(cfg.AMQP.URL); url != "" {
		pub, err := rabbitmq.NewPublisher(url, cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
		defer pub.Close()
		opts.Publisher = pub
		log.Info("domain events published to rabbitmq", map[string]any{"exchange": cfg.AMQP.Exchange})
	}

	if strings.TrimSpace(cfg.S3.Endpoint) != "" {
		images, err := minio.New(ctx, cfg.S3)
		if err != nil {
			return err
		}
		opts.ImageStore = images
		log.Info("animal images stored in s3", map[string]any{"bucket": cfg.S3.Bucket})
	}

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router.NewRouter(opts),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":   srv.Addr,
			"prefix": cfg.App.APIPrefix,
			"docs":   "/" + strings.TrimPrefix(cfg.App.APIPrefix+"/docs/", "/"),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openDB(ctx context.Context, dsn string, log logger.Logger) (*sql.DB, error) {
	db, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	n, err := migrations.Apply(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("postgres ready", map[string]any{"migrations_applied": n})
	return db, nil
}
