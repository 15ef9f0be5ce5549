package app

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/game-orders/internal/domain"
	"github.com/vladislavdragonenkov/game-orders/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/game-orders/internal/metrics"
	"github.com/vladislavdragonenkov/game-orders/internal/storage/memory"
	"github.com/vladislavdragonenkov/game-orders/internal/storage/postgres"
)

// Dependencies содержит собранные зависимости приложения.
type Dependencies struct {
	Repo domain.OrderRepository
	// Store не nil только при работе поверх PostgreSQL.
	Store *postgres.Store
	// Producer не nil только при настроенной Kafka.
	Producer *kafka.Producer
	Metrics  *metrics.HTTPMetrics
	Logger   *log.Entry
}

// NewDependencies инициализирует хранилище, метрики и опциональный Kafka producer.
// Недоступная Kafka не считается фатальной: сервис продолжает работу без событий.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{
		Metrics: metrics.NewHTTPMetrics(),
		Logger:  logger,
	}

	if cfg.PostgresDSN == "" {
		deps.Repo = memory.NewOrderRepository()
		logger.Info("using in-memory order storage")
	} else {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres storage: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
		}
		deps.Store = store
		deps.Repo = postgres.NewOrderRepository(store)
		logger.Info("using postgres order storage")
	}

	deps.Producer = initKafkaProducer(cfg.KafkaBrokers, logger)

	return deps, nil
}

// EventPublisher возвращает publisher для сервисного слоя или nil, если Kafka не настроена.
func (d *Dependencies) EventPublisher() domain.EventPublisher {
	if d.Producer == nil {
		return nil
	}
	return d.Producer
}

// Close освобождает внешние подключения в обратном порядке инициализации.
func (d *Dependencies) Close() {
	if d.Producer != nil {
		if err := d.Producer.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close kafka producer")
		} else {
			d.Logger.Info("kafka producer closed")
		}
	}
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres storage")
		}
	}
}

// initKafkaProducer создаёт producer, если задан список брокеров.
// Ошибка подключения логируется, сервис стартует без публикации событий.
func initKafkaProducer(brokers string, logger *log.Entry) *kafka.Producer {
	if brokers == "" {
		return nil
	}

	brokerList := strings.Split(brokers, ",")
	producer, err := kafka.NewProducer(brokerList)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil
	}

	logger.WithField("brokers", brokerList).Info("kafka producer initialized")
	return producer
}
