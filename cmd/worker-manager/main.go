package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.uber.org/zap"

	"vibe-transmuter/internal/common/camunda"
	"vibe-transmuter/internal/common/config"
	"vibe-transmuter/internal/common/database"
	"vibe-transmuter/internal/common/logger"
	"vibe-transmuter/internal/common/observability"
	"vibe-transmuter/internal/history"
	"vibe-transmuter/internal/transmute"
	"vibe-transmuter/pkg/registry"

	ns "vibe-transmuter/internal/workers/vibe/normalize-spec"
	tv "vibe-transmuter/internal/workers/vibe/transmute-vibe"
)

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// loadConfig reads path when set and otherwise searches the default
// config locations.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "config file; ./configs/config.yaml is searched when empty")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	ctx := context.Background()

	obs := newObservability(cfg, zapLog)
	defer obs.Shutdown()

	var zeebeClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = camunda.NewClientFromConfig(cfg.Camunda)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	if topology, err := zeebeClient.Topology(ctx); err == nil {
		zapLog.Info("Zeebe client connected successfully",
			zap.Int32("clusterSize", topology.ClusterSize),
			zap.Int("brokers", len(topology.Brokers)),
			zap.String("gatewayVersion", topology.GatewayVersion),
		)
	} else {
		zapLog.Warn("Zeebe topology unavailable", zap.Error(err))
	}

	generator, lister, err := newGenerator(ctx, cfg.APIs.GenAI)
	if err != nil {
		zapLog.Fatal("generator initialization failed", zap.Error(err))
	}

	var redis *database.RedisClient
	catalogOpts := []transmute.CatalogOption{}
	if cfg.Database.Redis.Address != "" {
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("redis unavailable, model catalog stays process-local", zap.Error(err))
			redis = nil
		} else {
			defer redis.Close()
			catalogOpts = append(catalogOpts, transmute.WithRedis(
				redis.Client,
				cfg.APIs.GenAI.CatalogCacheKey,
				time.Duration(cfg.APIs.GenAI.CatalogTTL)*time.Second,
			))
			zapLog.Info("Redis connected successfully")
		}
	}

	var catalog *transmute.ModelCatalog
	if lister != nil {
		catalog = transmute.NewModelCatalog(lister, cfg.APIs.GenAI.Model, log, catalogOpts...)
	}

	var (
		store   *history.Store
		indexer *history.Indexer
		pg      *database.PostgresClient
	)
	if cfg.History.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")

		store = history.NewStore(pg.DB)
		if cfg.History.AutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				zapLog.Fatal("history schema migration failed", zap.Error(err))
			}
		}

		if cfg.History.IndexEnabled {
			indexer = newIndexer(ctx, cfg, log, zapLog)
		}
	}

	reg, err := registry.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		zapLog.Warn("activity registry unavailable, using built-in input schemas", zap.Error(err))
		reg = nil
	}

	transmuter := transmute.NewTransmuter(generator, log, transmute.WithTracer(obs.Tracer()))

	var workers []*camunda.Worker

	if config.IsWorkerEnabled(cfg, tv.TaskType) {
		handler, err := tv.NewHandler(tv.HandlerOptions{
			AppConfig:     cfg,
			Transmuter:    transmuter,
			Catalog:       pickerOrNil(catalog),
			History:       store,
			Indexer:       indexer,
			Registry:      reg,
			Observability: obs,
			Logger:        log,
		})
		if err != nil {
			zapLog.Fatal("failed to create transmute-vibe handler", zap.Error(err))
		}
		workers = append(workers, startWorker(zeebeClient, tv.TaskType, cfg, handler, log))
	}

	if config.IsWorkerEnabled(cfg, ns.TaskType) {
		handler, err := ns.NewHandler(ns.HandlerOptions{
			AppConfig:     cfg,
			Records:       store,
			Registry:      reg,
			Observability: obs,
			Logger:        log,
		})
		if err != nil {
			zapLog.Fatal("failed to create normalize-spec handler", zap.Error(err))
		}
		workers = append(workers, startWorker(zeebeClient, ns.TaskType, cfg, handler, log))
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	srvOpts := serverOptions{
		Port:   cfg.App.HTTPPort,
		Zeebe:  zeebeClient,
		Logger: zapLog,
	}
	if store != nil {
		srvOpts.Store = store
	}
	if indexer != nil {
		srvOpts.Searcher = indexer
	}
	srv := newServer(srvOpts)
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != errServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop()
	}
	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func newObservability(cfg *config.Config, zapLog *zap.Logger) *observability.Observability {
	opts := []observability.Option{observability.WithSampleRatio(cfg.Observability.SampleRatio)}
	if cfg.Observability.TraceExporter == "stdout" {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			zapLog.Warn("stdout trace exporter unavailable", zap.Error(err))
		} else {
			opts = append(opts, observability.WithSpanExporter(exp))
		}
	}
	return observability.New(cfg.App.Name, opts...)
}

func newGenerator(ctx context.Context, cfg config.GenAIConfig) (transmute.Generator, transmute.ModelLister, error) {
	switch cfg.Provider {
	case config.ProviderHTTP:
		gen := transmute.NewHTTPGenerator(transmute.HTTPConfig{
			BaseURL:         cfg.BaseURL,
			Model:           cfg.Model,
			Temperature:     cfg.Temperature,
			MaxOutputTokens: int32(cfg.MaxOutputTokens),
			Timeout:         config.GetDuration(cfg.Timeout),
		})
		return gen, nil, nil
	default:
		gen, err := transmute.NewGeminiGenerator(ctx, transmute.GeminiConfig{
			APIKey:          cfg.APIKey,
			BaseURL:         cfg.BaseURL,
			Model:           cfg.Model,
			Temperature:     cfg.Temperature,
			MaxOutputTokens: int32(cfg.MaxOutputTokens),
		})
		if err != nil {
			return nil, nil, err
		}
		return gen, gen, nil
	}
}

func newIndexer(ctx context.Context, cfg *config.Config, log logger.Logger, zapLog *zap.Logger) *history.Indexer {
	var esClient *database.ElasticsearchClient
	err := retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Warn("elasticsearch unavailable, specs will not be indexed", zap.Error(err))
		return nil
	}
	zapLog.Info("Elasticsearch connected successfully")

	indexer := history.NewIndexer(esClient.Client, cfg.History.IndexName, log)
	if err := indexer.EnsureIndex(ctx); err != nil {
		zapLog.Warn("failed to ensure spec index", zap.Error(err))
	}
	return indexer
}

// pickerOrNil keeps a nil catalog from becoming a non-nil interface.
func pickerOrNil(c *transmute.ModelCatalog) tv.ModelPicker {
	if c == nil {
		return nil
	}
	return c
}

func startWorker(client *camunda.Client, taskType string, cfg *config.Config, handler camunda.JobHandler, log logger.Logger) *camunda.Worker {
	wcfg := config.GetWorkerConfig(cfg, taskType)
	return client.Subscribe(taskType, camunda.WorkerOptions{
		MaxJobsActive: wcfg.MaxJobsActive,
		Timeout:       config.GetDuration(wcfg.Timeout),
	}, handler, log)
}
