package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"detail-library/internal/app"
	"detail-library/internal/config"
	"detail-library/internal/model"
	"detail-library/internal/onnx"
	postgresClient "detail-library/internal/platform/postgres"
	rabbitmqClient "detail-library/internal/platform/rabbitmq"
	redisClient "detail-library/internal/platform/redis"
	"detail-library/internal/repository"
	"detail-library/internal/worker"
)

// App holds every long-lived dependency of the service. Redis and RabbitMQ
// are optional: the matching fields stay nil when they are not configured
// or not reachable.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Postgres *gorm.DB
	Redis    *redis.Client
	MQConn   *amqp.Connection

	Providers Providers

	DetailRepo        *repository.DetailRepository
	AuthService       *app.AuthService
	DetailService     *app.DetailService
	SuggestService    *app.SuggestService
	BackfillService   *app.BackfillService
	BackfillPublisher *rabbitmqClient.BackfillPublisher
	BackfillWorker    *worker.BackfillWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	logger := NewLogger(cfg.App)
	slog.SetDefault(logger)

	a := &App{Config: cfg, Logger: logger, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	db, err := postgresClient.New(ctx, cfg.PostgresDSN())
	if err != nil {
		return err
	}
	a.Postgres = db
	if err := postgresClient.EnsureVectorExtension(ctx, db); err != nil {
		return err
	}
	if err := db.AutoMigrate(&model.Detail{}, &model.DetailUsageRule{}, &model.Operator{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}

	if cfg.Redis.Addr != "" {
		redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			a.Logger.Warn("redis unavailable, embedding cache disabled", "err", err)
		} else {
			a.Redis = redisCli
		}
	}

	if cfg.RabbitMQ.URL != "" {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.BackfillQueue)
		if err != nil {
			a.Logger.Warn("rabbitmq unavailable, async backfill disabled", "err", err)
		} else {
			a.MQConn = mqConn
		}
	}

	providers, err := BuildProviders(cfg, a.Redis, a.Logger)
	if err != nil {
		return err
	}
	a.Providers = providers

	a.DetailRepo = repository.NewDetailRepository(db)

	a.AuthService = app.NewAuthService(
		repository.NewOperatorRepository(db),
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
	)
	a.DetailService = app.NewDetailService(a.DetailRepo)
	a.SuggestService = app.NewSuggestService(
		providers.QueryEmbedder,
		app.NewRetriever(a.DetailRepo, cfg.Embedding.Dimension),
		providers.Reranker,
		app.NewExplainer(providers.Generator, a.Logger),
		app.SuggestOptions{
			RetrievalK:  cfg.Suggest.RetrievalK,
			DefaultTopN: cfg.Suggest.DefaultTopN,
			MaxTopN:     cfg.Suggest.MaxTopN,
		},
		a.Logger,
	)
	a.BackfillService = app.NewBackfillService(a.DetailRepo, providers.Embedder, cfg.Embedding.Dimension, a.Logger)

	if a.MQConn != nil {
		a.BackfillPublisher = rabbitmqClient.NewBackfillPublisher(a.MQConn, cfg.RabbitMQ.BackfillQueue)
		a.BackfillWorker = worker.NewBackfillWorker(a.MQConn, a.BackfillService, cfg.RabbitMQ.BackfillQueue, a.Logger)
	}
	return nil
}

// StartWorkers starts queue consumers. Only the HTTP server calls it; CLI
// commands share the rest of the graph without consuming jobs.
func (a *App) StartWorkers(ctx context.Context) error {
	if a.BackfillWorker == nil {
		return nil
	}
	if err := a.BackfillWorker.Start(ctx); err != nil {
		return fmt.Errorf("start backfill worker failed: %w", err)
	}
	return nil
}

func (a *App) Close() error {
	var errs []error
	if a.BackfillWorker != nil {
		a.BackfillWorker.Close()
	}
	if err := a.Providers.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Postgres != nil {
		sqlDB, err := a.Postgres.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := onnx.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ProviderStatus reports which model capabilities are configured.
func (a *App) ProviderStatus() map[string]bool {
	return map[string]bool{
		"embedding":   a.Providers.Embedder != nil,
		"reranker":    a.Providers.Reranker != nil,
		"explanation": a.Providers.Generator != nil,
	}
}
