package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/shoppingcart/internal/catalog"
	"github.com/Skotchmaster/shoppingcart/internal/config"
	"github.com/Skotchmaster/shoppingcart/internal/db"
	"github.com/Skotchmaster/shoppingcart/internal/events"
	"github.com/Skotchmaster/shoppingcart/internal/hash"
	"github.com/Skotchmaster/shoppingcart/internal/httpserver"
	"github.com/Skotchmaster/shoppingcart/internal/logging"
	"github.com/Skotchmaster/shoppingcart/internal/metrics"
	loggingmw "github.com/Skotchmaster/shoppingcart/internal/middleware/logging"
	"github.com/Skotchmaster/shoppingcart/internal/models"
	"github.com/Skotchmaster/shoppingcart/internal/repo"
	"github.com/Skotchmaster/shoppingcart/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	if cfg.AutoMigrate {
		if err := db.Migrate(gdb); err != nil {
			log.Fatalf("db migrate: %v", err)
		}
	}

	cartRepo := &repo.GormRepo{DB: gdb}
	if cfg.SeedAdminUser != "" {
		seedAdmin(cartRepo, cfg.SeedAdminUser, cfg.SeedAdminPass, logger)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.CartEventsTopic)
		logger.Info("kafka_publisher_enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.CartEventsTopic)
	}

	m := metrics.New(cfg.ServiceName)

	cartSvc := &service.CartService{
		Repo:       cartRepo,
		Events:     publisher,
		Metrics:    m,
		PruneScope: cfg.PruneScope,
	}
	if cfg.ProductSource == "es" {
		esCtx, esCancel := context.WithTimeout(context.Background(), 10*time.Second)
		esClient, err := catalog.NewClient(esCtx, catalog.Config{
			URL:      cfg.ESURL,
			Username: cfg.ESUser,
			Password: cfg.ESPassword,
		}, logger)
		esCancel()
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		cartSvc.Products = &catalog.ESProducts{ES: esClient, Index: cfg.ESProductIndex}
	}

	authSvc := &service.AuthService{
		Repo:      cartRepo,
		JWTSecret: cfg.JWTSecret,
		AccessTTL: cfg.AccessTTL,
		Metrics:   m,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(m.Middleware())
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		CartHandler: &httpserver.CartHTTP{Svc: cartSvc},
		AuthHandler: &httpserver.AuthHTTP{Svc: authSvc},
		JWTSecret:   cfg.JWTSecret,
		DB:          cartRepo,
		Metrics:     m.Handler(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("server_listening", "addr", srv.Addr, "prune_scope", cfg.PruneScope, "product_source", cfg.ProductSource)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("publisher_close_error", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("server_stopped")
}

func seedAdmin(r *repo.GormRepo, username, password string, l *slog.Logger) {
	pw, err := hash.HashPassword(password)
	if err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = r.EnsureUser(ctx, &models.User{Username: username, PasswordHash: pw, Role: models.RoleAdmin})
	switch {
	case err == nil:
		l.Info("admin_seeded", "username", username)
	case errors.Is(err, repo.ErrUserAlreadyExist):
		l.Info("admin_seed_skipped", "username", username, "reason", "user exists")
	default:
		log.Fatalf("seed admin: %v", err)
	}
}
