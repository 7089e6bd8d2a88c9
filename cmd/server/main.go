package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/shoplist/api/handler"
	"github.com/fastygo/shoplist/internal/config"
	"github.com/fastygo/shoplist/internal/infrastructure/buffer"
	"github.com/fastygo/shoplist/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/shoplist/internal/infrastructure/postgres"
	"github.com/fastygo/shoplist/internal/middleware"
	"github.com/fastygo/shoplist/internal/router"
	"github.com/fastygo/shoplist/internal/services"
	"github.com/fastygo/shoplist/internal/services/lifecycle"
	"github.com/fastygo/shoplist/pkg/httpcontext"
	"github.com/fastygo/shoplist/pkg/logger"
	"github.com/fastygo/shoplist/repository"
	"github.com/fastygo/shoplist/repository/memory"
	"github.com/fastygo/shoplist/repository/postgres"
	"github.com/fastygo/shoplist/repository/sqlite"
	"github.com/fastygo/shoplist/usecase"
	itemUC "github.com/fastygo/shoplist/usecase/item"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, stop := manager.SignalContext(context.Background())
	defer stop()

	items, err := openItems(appCtx, cfg, zapLogger, manager)
	if err != nil {
		zapLogger.Fatal("storage unavailable", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}

	var (
		bufferStore *buffer.Store
		sizer       monitor.BufferSizer
	)
	if cfg.Buffer.Enabled {
		bufferStore, err = buffer.Open(cfg.Buffer.Path, "")
		if err != nil {
			zapLogger.Fatal("failed to open buffer store", zap.Error(err))
		}
		manager.Closer("buffer", bufferStore.Close)
		sizer = bufferStore
	}

	mon := monitor.New("items", map[string]monitor.Pinger{"items": items}, sizer, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	var opBuffer usecase.OperationBuffer
	if bufferStore != nil {
		processor, err := services.NewBufferProcessor(bufferStore, mon, items, zapLogger, services.ProcessorConfig{
			Interval:   cfg.Buffer.SyncInterval,
			BatchSize:  cfg.Buffer.BatchSize,
			MaxRetries: cfg.Buffer.MaxRetry,
			MaxAge:     24 * time.Hour,
		})
		if err != nil {
			zapLogger.Fatal("failed to create buffer processor", zap.Error(err))
		}
		processor.Start()
		manager.Register("buffer_processor", processor.Stop)
		opBuffer = services.NewBufferBridge(processor)
	}

	itemUseCase := itemUC.New(items, opBuffer, zapLogger)
	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Item:   apiHandler.NewItemHandler(itemUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, cfg.Storage.Driver, ctxAdapter, zapLogger),
	}

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		PerMinute: cfg.RateLimit.PerMinute,
		Burst:     cfg.RateLimit.Burst,
		MaxIPs:    cfg.RateLimit.MaxIPs,
	}, zapLogger)
	r := router.New(handlers, limiter.Handler)

	server := &fasthttp.Server{
		Handler:      middleware.Chain(r.Handler, middleware.AccessLog(zapLogger)),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", cfg.Storage.Driver),
			zap.Bool("buffer", cfg.Buffer.Enabled))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

// openItems builds the repository named by STORAGE_DRIVER and registers its release hook.
func openItems(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger, manager *lifecycle.Manager) (repository.ItemRepository, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			return nil, err
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
		if err != nil {
			return nil, err
		}
		manager.Register("postgres", func(context.Context) error {
			pool.Close()
			return nil
		})
		return postgres.NewItemRepository(pool), nil

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		manager.Closer("sqlite", db.Close)
		zapLogger.Info("sqlite opened", zap.String("path", cfg.SQLite.Path))
		return db, nil

	default:
		zapLogger.Warn("using in-memory storage, items are lost on restart")
		return memory.NewItemRepository(), nil
	}
}
