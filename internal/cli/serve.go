package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	corecfg "github.com/aevon-lab/telemetry-ingest/internal/core/config"
	"github.com/aevon-lab/telemetry-ingest/internal/core/storage"
	"github.com/aevon-lab/telemetry-ingest/internal/core/storage/postgres"
	"github.com/aevon-lab/telemetry-ingest/internal/core/storage/sqlite"
	"github.com/aevon-lab/telemetry-ingest/internal/ingestion"
	"github.com/aevon-lab/telemetry-ingest/internal/migrations"
	"github.com/aevon-lab/telemetry-ingest/internal/outbox"
	"github.com/aevon-lab/telemetry-ingest/internal/projection"
	"github.com/aevon-lab/telemetry-ingest/internal/queue"
	"github.com/aevon-lab/telemetry-ingest/internal/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ingestion and query HTTP API",
		Long: `Run the HTTP API. POST /events ingests one event, GET /devices/{device_id}/events
pages through a device's events newest first, GET /health reports store connectivity.

Example:
  telemetry serve --config telemetry.yaml
  TELEMETRY_DATABASE__TYPE=memory TELEMETRY_QUEUE__TYPE=log telemetry serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
}

// App is the wired service: one store and one publisher shared by the
// ingestion pipeline, the query engine and the outbox relay.
type App struct {
	Server    *server.Server
	Relay     *outbox.Relay // nil when the outbox is disabled
	store     storage.Store
	publisher queue.Publisher
}

// NewApp wires the HTTP routes and the relay around an opened store and publisher.
func NewApp(cfg *corecfg.Config, store storage.Store, publisher queue.Publisher) *App {
	ingestionSvc := ingestion.NewService(store, store, publisher, cfg.Server.MaxBodySizeMB)
	projectionSvc := projection.NewService(store, cfg.Query.DefaultLimit, cfg.Query.MaxLimit)

	srv := server.New(cfg.Server.Addr(), store, cfg.Server.Mode, cfg.Server.RequestTimeoutDuration())
	ingestionSvc.RegisterRoutes(srv.Engine)
	projectionSvc.RegisterRoutes(srv.Engine)

	app := &App{Server: srv, store: store, publisher: publisher}
	if cfg.Outbox.Enabled {
		app.Relay = outbox.NewRelay(store, publisher, outbox.Options{
			Interval:    cfg.Outbox.IntervalDuration(),
			GracePeriod: cfg.Outbox.GracePeriodDuration(),
			BatchSize:   cfg.Outbox.BatchSize,
			WorkerCount: cfg.Outbox.WorkerCount,
		})
	}
	return app
}

// Run serves until ctx is cancelled or a component fails, then releases the
// publisher and the store.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Server.Run(gctx)
	})
	if a.Relay != nil {
		g.Go(func() error {
			return a.Relay.Start(gctx)
		})
	} else {
		slog.Info("[Outbox] Relay disabled by config")
	}

	runErr := g.Wait()
	if err := a.Close(); err != nil {
		slog.Error("[App] Failed to release resources", "error", err)
	}
	return runErr
}

func (a *App) Close() error {
	return errors.Join(a.publisher.Close(), a.store.Close())
}

func runServe(ctx context.Context, cfg *corecfg.Config) error {
	store, err := openStore(cfg.Database)
	if err != nil {
		return err
	}

	app := NewApp(cfg, store, newPublisher(cfg.Queue))
	slog.Info("[App] Service initialized",
		"addr", cfg.Server.Addr(),
		"store", cfg.Database.Type,
		"queue", cfg.Queue.Type,
		"outbox", cfg.Outbox.Enabled)

	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("service stopped with error: %w", err)
	}
	slog.Info("[App] Shutdown complete")
	return nil
}

// openStore opens the configured event store. Postgres schemas are migrated
// before the adapter validates them.
func openStore(cfg corecfg.DatabaseConfig) (storage.Store, error) {
	switch cfg.Type {
	case "postgres":
		db, err := postgres.Open(cfg.DSN, cfg.MaxOpenConns, cfg.MaxIdleConns)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := migrations.RunMigrations(db, cfg.AutoMigrate); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		adapter, err := postgres.NewAdapter(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return adapter, nil
	case "sqlite":
		store, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory":
		slog.Warn("[App] Using in-memory event store; events are lost on restart")
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported database.type %q", cfg.Type)
	}
}

func newPublisher(cfg corecfg.QueueConfig) queue.Publisher {
	if cfg.Type == "kafka" {
		return queue.NewKafkaPublisher(queue.KafkaConfig{
			Brokers:      cfg.BrokerList(),
			Topic:        cfg.Topic,
			WriteTimeout: cfg.WriteTimeoutDuration(),
		})
	}
	return queue.NewLogPublisher(slog.Default())
}
