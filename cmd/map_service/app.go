package mapservice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"dalnoboi/internal/general/config"
	"dalnoboi/internal/general/logger"
	"dalnoboi/internal/general/postgres"
	"dalnoboi/internal/general/rabbitmq"
	"dalnoboi/internal/general/ticket"
	"dalnoboi/internal/general/websocket"
	"dalnoboi/internal/ports"
	"dalnoboi/internal/software/market/handler"
	"dalnoboi/internal/software/market/service"

	"golang.org/x/sync/errgroup"
)

// Run wires the map service and blocks until ctx is cancelled.
func Run(ctx context.Context, configPath string, maxConcurrent, prefetch int) error {
	// set up a new logger and context for map service with a static request ID for startup logs
	logger := logger.New("map-service")
	ctx = logger.WithRequestID(ctx, "startup-001")

	// load a config from file
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}
	logger.SetDebug(cfg.Log.Debug)

	// set up the catalog source
	source, closeSource, err := newSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	catalog := service.NewCatalog(source, logger)
	if _, err := catalog.Load(ctx); err != nil {
		logger.Error(ctx, "catalog_initial_load_failed", "Failed to load cargo catalog", err, map[string]any{"source": cfg.Catalog.Source})
		return err
	}

	// set up the booking backend
	var (
		actions  ports.Actions
		rmq      *rabbitmq.Client
		mqAction *service.MQActions
	)
	switch cfg.Actions.Backend {
	case config.ActionsRabbitMQ:
		rmq, err = rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
		if err != nil {
			logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
			return err
		}
		defer rmq.Close()
		mqAction = service.NewMQActions(rabbitmq.NewMQPublisher(rmq), logger)
		actions = mqAction
	default:
		actions = service.NewMockActions()
	}

	// set up the ticket manager, sessions and the market service
	tickets := ticket.NewManager(cfg.Ticket.SecretKey, cfg.Ticket.TTL)
	hub := service.NewHub()
	svc := service.NewMarketService(logger, catalog, hub, actions, tickets, service.SessionOptions{
		StaleAfter:     cfg.Session.StaleAfter,
		LocateWait:     cfg.Session.LocateWait,
		NearbyRadiusKM: cfg.Session.NearbyRadiusKM,
	})

	// set up the HTTP handler and its routes
	socket := websocket.NewMapSocket(logger, tickets, svc)
	mux := http.NewServeMux()
	httpHandler := handler.NewMarketHTTPHandler(svc, logger, socket)
	httpHandler.RegisterRoutes(mux)

	// concurrency limiter (global) - blocks when capacity is full
	limitedHandler := withConcurrencyLimit(maxConcurrent, mux)

	// set up the server configurations
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           limitedHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	// background jobs: catalog refresh and idle-session sweep
	scheduler := service.NewScheduler(logger, catalog, hub, cfg.Catalog.Refresh, cfg.Session.IdleTimeout)
	g.Go(func() error { return scheduler.Run(gctx) })

	// order status updates from the shipper side
	if mqAction != nil {
		consumer := service.NewOrderStatusConsumer(logger, rmq, mqAction, svc, prefetch)
		g.Go(func() error { return consumer.Run(gctx) })
	}

	// HTTP server
	g.Go(func() error {
		logger.Info(ctx, "service_started",
			fmt.Sprintf("Map Service started on port %d", cfg.HTTP.Port),
			map[string]any{
				"port":           cfg.HTTP.Port,
				"max_concurrent": maxConcurrent,
				"source":         cfg.Catalog.Source,
				"actions":        cfg.Actions.Backend,
			},
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"port": cfg.HTTP.Port})
			return err
		}
		return nil
	})

	// graceful HTTP shutdown once the group is cancelled
	g.Go(func() error {
		<-gctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info(ctx, "shutdown_started", "Start graceful shutdown", nil)
		if err := srv.Shutdown(shCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
			return err
		}
		return nil
	})

	return g.Wait()
}

// newSource opens the configured catalog source. The returned func releases it.
func newSource(ctx context.Context, cfg *config.Config, logger *logger.Logger) (ports.OfferSource, func(), error) {
	switch cfg.Catalog.Source {
	case config.SourcePostgres:
		pool, err := postgres.NewPool(ctx, cfg, logger)
		if err != nil {
			logger.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
			return nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			logger.Error(ctx, "db_schema_failed", "Failed to apply schema", err, nil)
			return nil, nil, err
		}
		src := &service.RepoSource{UOW: postgres.NewReadOnlyUnitOfWork(pool), Repo: postgres.NewOfferRepo()}
		return src, pool.Close, nil
	case config.SourceXLSX:
		return &service.XLSXSource{Path: cfg.Catalog.File, Sheet: cfg.Catalog.Sheet, Logger: logger}, func() {}, nil
	default:
		return service.SeedSource{}, func() {}, nil
	}
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
// It controls how many HTTP requests can be in-progress at the same time.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}: // acquire
			defer func() { <-sem }() // release
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			// client canceled or server is shutting down
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}
