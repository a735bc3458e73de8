package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"aijobsdash/common/cache"
	"aijobsdash/common/cache/memory"
	"aijobsdash/common/cache/redis"
	"aijobsdash/common/database"
	"aijobsdash/common/database/schema/migrations"
	"aijobsdash/common/telemetry"
	"aijobsdash/services/dashboard/internal/config"
	"aijobsdash/services/dashboard/internal/dataset"
	"aijobsdash/services/dashboard/internal/events"
	"aijobsdash/services/dashboard/internal/loader"
	"aijobsdash/services/dashboard/internal/messaging"
	"aijobsdash/services/dashboard/internal/scheduler"
	"aijobsdash/services/dashboard/internal/server"
	"aijobsdash/services/dashboard/internal/warehouse"

	_ "github.com/joho/godotenv/autoload"
	"github.com/nats-io/nats.go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const serviceName = "dashboard-service"

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return zap.NewProduction()
}

func newNATSConnection(cfg *config.Config, logger *zap.Logger, lc fx.Lifecycle) (*nats.Conn, error) {
	nc, err := messaging.Connect(cfg)
	if err != nil || nc == nil {
		return nc, err
	}
	logger.Info("connected to NATS", zap.String("url", cfg.NATSURL))
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return nc.Drain()
		},
	})
	return nc, nil
}

func newPublisher(logger *zap.Logger, nc *nats.Conn, lc fx.Lifecycle) messaging.Publisher {
	publisher := messaging.NewPublisher(logger, nc)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			publisher.Close()
			return nil
		},
	})
	return publisher
}

func newCache(cfg *config.Config, logger *zap.Logger, lc fx.Lifecycle) cache.Cache {
	opts := cache.DefaultOptions()
	opts.DefaultTTL = cfg.CacheTTL
	opts.RedisURL = cfg.RedisAddr
	opts.RedisPassword = cfg.RedisPassword
	opts.RedisDB = cfg.RedisDB

	var c cache.Cache
	if cfg.RedisAddr != "" {
		logger.Info("using redis cache", zap.String("addr", cfg.RedisAddr))
		c = redis.New(opts)
	} else {
		logger.Info("using in-process cache")
		c = memory.New(opts)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return c.Close()
		},
	})
	return c
}

func newWarehouse(cfg *config.Config, logger *zap.Logger, lc fx.Lifecycle) (warehouse.Sink, error) {
	ctx := context.Background()

	var sink warehouse.Sink
	switch cfg.WarehouseDriver {
	case config.WarehouseClickHouse:
		db, err := database.New(ctx, database.Options{
			DSN:             cfg.ClickHouseDSN,
			MaxOpenConns:    cfg.ClickHouseMaxOpenConns,
			MaxIdleConns:    cfg.ClickHouseMaxIdleConns,
			ConnMaxLifetime: cfg.ClickHouseConnMaxLife,
			Username:        cfg.ClickHouseUsername,
			Password:        cfg.ClickHousePassword,
			Database:        cfg.ClickHouseDatabase,
		}, logger)
		if err != nil {
			return nil, err
		}
		if cfg.ClickHouseAutoMigrate {
			if err := db.Migrate(ctx, migrations.All); err != nil {
				db.Close()
				return nil, err
			}
		}
		sink = warehouse.NewClickHouseSink(logger, db.Conn())
	case config.WarehouseSQLite:
		s, err := warehouse.OpenSQLite(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		sink = s
	default:
		logger.Info("warehouse mirror disabled")
		return warehouse.Disabled(), nil
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return sink.Close()
		},
	})
	return sink, nil
}

func newSource(cfg *config.Config) dataset.Source {
	return loader.FileSource{Path: cfg.DatasetPath}
}

func newInvalidator(store *dataset.Store) events.Invalidator {
	return store
}

func newRefresher(store *dataset.Store, logger *zap.Logger, cfg *config.Config) *scheduler.Refresher {
	return scheduler.NewRefresher(store, logger, cfg.RefreshInterval)
}

func registerTracing(cfg *config.Config, logger *zap.Logger, lc fx.Lifecycle) error {
	shutdown, err := telemetry.InitTracer(context.Background(), serviceName, cfg.OTELCollectorURL)
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return shutdown(ctx)
		},
	})
	return nil
}

// warmUp parses the dataset once at startup. A failure is logged and the
// next request retries.
func warmUp(store *dataset.Store, logger *zap.Logger, lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			table, err := store.Table(ctx)
			if err != nil {
				logger.Error("initial dataset load failed", zap.Error(err))
				return nil
			}
			logger.Info("dataset ready", zap.Int("rows", table.Len()))
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			newLogger,
			newNATSConnection,
			newPublisher,
			newCache,
			newWarehouse,
			newSource,
			loader.New,
			dataset.NewStore,
			newInvalidator,
			newRefresher,
			server.New,
			events.NewHandler,
		),
		fx.Invoke(
			registerTracing,
			warmUp,
			func(s *server.Server, lc fx.Lifecycle) {
				s.Register(lc)
			},
			func(handler *events.Handler, lc fx.Lifecycle) error {
				return handler.RegisterSubscriptions(lc)
			},
			func(r *scheduler.Refresher, lc fx.Lifecycle) {
				r.Register(lc)
			},
		),
	)

	startCtx := context.Background()
	if err := app.Start(startCtx); err != nil {
		log.Fatal(err)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	stopCtx := context.Background()
	if err := app.Stop(stopCtx); err != nil {
		log.Fatal(err)
	}
}
