package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/tranvm/luxora/internal/config"
	"github.com/tranvm/luxora/internal/es"
	"github.com/tranvm/luxora/internal/events"
	"github.com/tranvm/luxora/internal/httpserver"
	"github.com/tranvm/luxora/internal/logging"
	"github.com/tranvm/luxora/internal/repo"
	"github.com/tranvm/luxora/internal/service"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logging.New(cfg.LOG_LEVEL)
	slog.SetDefault(log)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(initCtx, cfg)
	cancel()
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}

	r := &repo.GormRepo{DB: db}

	var producer *events.Producer
	if cfg.KAFKA_ADDRESS != "" {
		producer = events.NewProducer([]string{cfg.KAFKA_ADDRESS})
		defer producer.Close()
	}
	var pub service.Publisher
	if producer != nil {
		pub = producer
	}

	var (
		searchHTTP *httpserver.SearchHTTP
		indexer    service.ProductIndexer
	)
	if cfg.ES_URL != "" {
		esClient, err := es.NewClient(cfg)
		if err != nil {
			log.Warn("elasticsearch unavailable, search disabled", "error", err)
		} else {
			searchHTTP = &httpserver.SearchHTTP{ES: esClient, Index: cfg.ES_INDEX}
			indexer = &es.ProductIndex{Client: esClient, Index: cfg.ES_INDEX}
		}
	}

	var rdb *redis.Client
	if cfg.REDIS_ADDR != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.REDIS_ADDR})
		defer rdb.Close()
	}

	cartSvc := &service.CartService{Repo: r, Events: pub}
	orderSvc := &service.OrderService{Repo: r, Carts: cartSvc, Events: pub}
	addressSvc := &service.AddressService{Repo: r}
	catalogSvc := &service.CatalogService{Repo: r, Index: indexer, Events: pub}
	viewedSvc := &service.ViewedService{RDB: rdb, Repo: r}
	authSvc := &service.AuthService{
		Repo:          r,
		JWTSecret:     []byte(cfg.JWT_SECRET),
		RefreshSecret: []byte(cfg.REFRESH_SECRET),
		Events:        pub,
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(httpserver.WithLogger(log))

	httpserver.Register(e, &httpserver.Deps{
		Auth:    &httpserver.AuthHTTP{Svc: authSvc},
		Cart:    &httpserver.CartHTTP{Svc: cartSvc},
		Order:   &httpserver.OrderHTTP{Svc: orderSvc},
		Address: &httpserver.AddressHTTP{Svc: addressSvc},
		Product: &httpserver.ProductHTTP{Svc: catalogSvc, Viewed: viewedSvc},
		Search:  searchHTTP,
		Tokens:  &httpserver.TokenMiddleware{Auth: authSvc},
	})

	go func() {
		log.Info("starting server", "port", cfg.SERVER_PORT)
		if err := e.Start(":" + cfg.SERVER_PORT); err != nil && err != http.ErrServerClosed {
			log.Error("server start failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	return nil
}
