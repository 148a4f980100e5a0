package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/medorder/internal/cache"
	"github.com/Skotchmaster/medorder/internal/events"
	"github.com/Skotchmaster/medorder/internal/httpserver"
	authmw "github.com/Skotchmaster/medorder/internal/middleware/auth"
	"github.com/Skotchmaster/medorder/internal/repo"
	"github.com/Skotchmaster/medorder/internal/search"
	"github.com/Skotchmaster/medorder/internal/service"
	pkgdb "github.com/Skotchmaster/medorder/pkg/db"
	"github.com/Skotchmaster/medorder/pkg/hash"
	"github.com/Skotchmaster/medorder/pkg/tokens"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, r, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err := pkgdb.Close(db); err != nil {
				logger.Error("db_close_failed", "error", err)
			}
		}()
		if autoMigrate {
			if err := repo.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}

		codec, err := tokens.NewCodec(tokens.Config{
			AccessSecret:  []byte(cfg.JWTAccessSecret),
			RefreshSecret: cfg.RefreshSecret(),
			AccessTTL:     cfg.AccessTokenTTL,
			RefreshTTL:    cfg.RefreshTokenTTL,
		})
		if err != nil {
			return err
		}
		hasher := hash.New(cfg.BcryptCost)

		var rdb *redis.Client
		if cfg.RedisAddr != "" {
			rdb, err = cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			if err != nil {
				return fmt.Errorf("connect to redis: %w", err)
			}
			defer rdb.Close()
			logger.Info("redis_connected", "addr", cfg.RedisAddr)
		}
		blacklist := cache.NewBlacklist(rdb, r)

		var publisher service.Publisher = events.Noop{}
		if len(cfg.KafkaBrokers) > 0 {
			prod := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaUserTopic, cfg.KafkaOrderTopic)
			defer func() {
				if err := prod.Close(); err != nil {
					logger.Error("kafka_close_failed", "error", err)
				}
			}()
			publisher = prod
		}

		orders := &service.OrderService{Orders: r, Events: publisher}
		if cfg.ESURL != "" {
			es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
			if err != nil {
				return fmt.Errorf("elasticsearch client: %w", err)
			}
			orders.Index = search.NewOrderIndex(es, cfg.ESOrderIndex)
		}

		guard := &service.Guard{Codec: codec, Users: r, Blacklist: blacklist}

		e := httpserver.New(logger, httpserver.Options{CORSAllowOrigins: cfg.CORSAllowOrigins})
		httpserver.Register(e, &httpserver.Deps{
			DB:   db,
			Auth: authmw.New(guard),
			AuthHandler: &httpserver.AuthHTTP{Svc: &service.AuthService{
				Users:     r,
				Tokens:    r,
				Blacklist: blacklist,
				Codec:     codec,
				Hasher:    hasher,
				Events:    publisher,
				Rotate:    cfg.RefreshRotation,
			}},
			UserHandler: &httpserver.UserHTTP{Svc: &service.UserService{
				Users: r, Tokens: r, Hasher: hasher, Events: publisher,
			}},
			OrderHandler: &httpserver.OrderHTTP{Svc: orders},
		})

		bgCtx, stopBg := context.WithCancel(ctx)
		defer stopBg()
		go (&service.Pruner{Tokens: r, Interval: cfg.BlacklistPruneInterval}).Run(bgCtx)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		return runServer(e, cfg.HTTPAddr, quit, logger)
	},
}

// runServer serves until quit fires or the listener fails; a start failure is returned.
func runServer(e *echo.Echo, addr string, quit <-chan os.Signal, log *slog.Logger) error {
	e.Server.Addr = addr
	serveErr := make(chan error, 1)
	go func() {
		log.Info("http_listening", "addr", addr)
		serveErr <- e.StartServer(e.Server)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server_error", "error", err)
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Info("shutting_down")
	go func() {
		<-quit
		log.Warn("force_exit")
		os.Exit(1)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("server_shutdown_error", "error", err)
		return err
	}

	log.Info("shutdown_complete")
	return nil
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", true, "run schema migrations before serving")
}
