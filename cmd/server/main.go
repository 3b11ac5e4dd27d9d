package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bookshelf/internal/auth"
	"bookshelf/internal/config"
	apphttp "bookshelf/internal/http"
	"bookshelf/internal/pubsub"
	"bookshelf/internal/repository"
	"bookshelf/internal/repository/postgres"
	"bookshelf/internal/repository/sqlite"
	"bookshelf/internal/resolver"
	"bookshelf/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := openStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer stores.close()
	logger.Infof("using %s store", cfg.Database.Driver)

	if err := stores.users.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := stores.books.Init(ctx); err != nil {
		logger.Fatalf("init book repository: %v", err)
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.TokenTTL(), auth.WithIssuer(cfg.Auth.Issuer))
	if err != nil {
		logger.Fatalf("setup token service: %v", err)
	}

	bus := pubsub.New(logger)

	res := resolver.New(resolver.Config{
		Users:  service.NewUserService(stores.users, cfg.Auth.BCryptCost),
		Books:  service.NewBookService(stores.books),
		Tokens: tokens,
		Gate:   auth.NewGate(tokens),
		Bus:    bus,
		Logger: logger,
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(res, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}
	// Open event streams end when the bus closes, which lets Shutdown drain.
	srv.RegisterOnShutdown(bus.Close)

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	bus.Close()

	logger.Info("bye")
}

type stores struct {
	users repository.UserRepository
	books repository.BookRepository
	close func()
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		return &stores{
			users: postgres.NewUserRepository(pool),
			books: postgres.NewBookRepository(pool),
			close: pool.Close,
		}, nil
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		return &stores{
			users: sqlite.NewUserRepository(db),
			books: sqlite.NewBookRepository(db),
			close: func() { _ = db.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
