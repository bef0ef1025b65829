package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/essentialstracker/backend/internal/adapter/cache"
	grpcadapter "github.com/essentialstracker/backend/internal/adapter/grpc"
	"github.com/essentialstracker/backend/internal/adapter/repository/postgres"
	"github.com/essentialstracker/backend/internal/adapter/repository/sqlite"
	"github.com/essentialstracker/backend/internal/collector"
	"github.com/essentialstracker/backend/internal/config"
	"github.com/essentialstracker/backend/internal/domain"
	"github.com/essentialstracker/backend/internal/scheduler"
	"github.com/essentialstracker/backend/internal/usecase/dashboard"
	"github.com/essentialstracker/backend/internal/usecase/essential"
	"github.com/essentialstracker/backend/internal/usecase/seeder"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	log.Info("starting essentials tracker", slog.String("env", cfg.Env), slog.String("storage", cfg.Storage.Driver))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Setup Storage
	essentialRepo, observationRepo, db, err := openStorage(ctx, cfg)
	if err != nil {
		log.Error("failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	// 2. Setup Cache
	var chartCache domain.ChartCache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(ctx, log, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.CandlesTTL)
		if err != nil {
			log.Error("failed to connect to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisCache.Close()
		chartCache = redisCache
		log.Info("redis cache enabled", slog.String("addr", cfg.Redis.Addr))
	}

	// 3. Initialize Services (Use Cases)
	essentialService := essential.NewEssentialService(essentialRepo, observationRepo, chartCache, cfg.Location(), cfg.Redis.StatsTTL)
	dashboardService := dashboard.NewDashboardService(essentialRepo, observationRepo, cfg.Dashboard.Workers)

	// Seed the essentials catalog
	catalog, err := seeder.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		log.Error("failed to load catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}
	catalogSeeder := seeder.NewCatalogSeeder(essentialRepo, observationRepo, catalog, cfg.Catalog.SampleHistory)
	created, err := catalogSeeder.Seed(ctx)
	if err != nil {
		log.Error("failed to seed catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("catalog seeded", slog.Int("created", created), slog.Int("entries", len(catalog.Essentials)))

	// 4. Gas price collection
	var sched *scheduler.Scheduler
	if cfg.Collector.Enabled() {
		source := collector.NewEIAClient(cfg.Collector.EIABaseURL, cfg.Collector.EIAAPIKey)
		ingestor := collector.NewGasPriceIngestor(log, source, essentialService, essentialRepo, observationRepo)

		if since, ok := cfg.Collector.Backfill(); ok {
			imported, err := ingestor.IngestHistory(ctx, since)
			if err != nil {
				log.Warn("gas price backfill failed", slog.String("error", err.Error()))
			} else {
				log.Info("gas price backfill finished", slog.Int("imported", imported))
			}
		}

		sched = scheduler.NewScheduler(ctx, log, ingestor)
		if err := sched.Register(cfg.Collector.Cron); err != nil {
			log.Error("failed to schedule gas price collection", slog.String("error", err.Error()))
			os.Exit(1)
		}
		sched.Start()
		go sched.RunNow()
	} else {
		log.Info("gas price collector disabled: no EIA API key")
	}

	// 5. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(log),
			grpcadapter.AuthInterceptor(cfg.Grpc.APIToken),
		),
	)

	grpcAdapter := grpcadapter.NewServer(essentialService, dashboardService)
	grpcadapter.RegisterEssentialsServiceServer(grpcServer, grpcAdapter)

	reflection.Register(grpcServer)

	addr := fmt.Sprintf(":%d", cfg.Grpc.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error("failed to listen", slog.String("addr", addr), slog.String("error", err.Error()))
		os.Exit(1)
	}

	go func() {
		log.Info("gRPC server listening", slog.String("addr", addr))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("failed to serve gRPC server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	waitForShutdown(log, grpcServer, sched)
	cancel()
}

// openStorage opens the configured database and returns its repositories
func openStorage(ctx context.Context, cfg *config.Config) (domain.EssentialRepository, domain.ObservationRepository, io.Closer, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		return sqlite.NewEssentialRepository(db), sqlite.NewObservationRepository(db), db, nil
	case config.DriverPostgres:
		db, err := connectPostgres(ctx, cfg.Postgres.DSN())
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return postgres.NewEssentialRepository(db), postgres.NewObservationRepository(db), db, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// connectPostgres retries while the database container comes up
func connectPostgres(ctx context.Context, dsn string) (*postgres.DB, error) {
	const attempts = 5

	var lastErr error
	for i := 0; i < attempts; i++ {
		db, err := postgres.NewDB(dsn)
		if err == nil {
			return db, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return nil, lastErr
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(log *slog.Logger, grpcServer *grpclib.Server, sched *scheduler.Scheduler) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Info("shutting down gracefully", slog.String("signal", sig.String()))

	if sched != nil {
		sched.Stop()
	}

	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")
}
