package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/game-orders/internal/app"
	"github.com/vladislavdragonenkov/game-orders/internal/version"
)

const (
	envHTTPAddr            = "ORDERS_HTTP_ADDR"
	envMetricsAddr         = "ORDERS_METRICS_ADDR"
	envPostgresDSN         = "ORDERS_POSTGRES_DSN"
	envPostgresAutoMigrate = "ORDERS_POSTGRES_AUTO_MIGRATE"
	envKafkaBrokers        = "KAFKA_BROKERS"
)

// envLookup абстрагирует доступ к переменным окружения для тестов.
type envLookup func(key string) (string, bool)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
}

// readConfigFromEnv собирает конфигурацию из переменных окружения.
// Некорректные значения не прерывают запуск: остаётся значение по умолчанию,
// а замечание попадает в возвращаемый список предупреждений.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	if v, ok := lookup(envHTTPAddr); ok && strings.TrimSpace(v) != "" {
		cfg.HTTPAddr = strings.TrimSpace(v)
	}
	if v, ok := lookup(envMetricsAddr); ok && strings.TrimSpace(v) != "" {
		cfg.MetricsAddr = strings.TrimSpace(v)
	}
	if v, ok := lookup(envPostgresDSN); ok {
		cfg.PostgresDSN = strings.TrimSpace(v)
	}
	if v, ok := lookup(envKafkaBrokers); ok {
		cfg.KafkaBrokers = strings.TrimSpace(v)
	}
	if v, ok := lookup(envPostgresAutoMigrate); ok {
		parsed, err := parseBool(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envPostgresAutoMigrate, err))
		} else {
			cfg.PostgresAutoMigrate = parsed
		}
	}

	return cfg, warnings
}

// parseBool принимает привычные для конфигов варианты булевых значений.
func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", value)
	}
}

func main() {
	setupLogger()

	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	for _, warning := range warnings {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":    cfg.HTTPAddr,
		"metrics_addr": cfg.MetricsAddr,
		"storage":      storageName(cfg),
		"version":      version.GetVersion(),
	}).Info("запускаем сервис заказов")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("сервис заказов остановлен")
}

func storageName(cfg app.Config) string {
	if cfg.PostgresDSN == "" {
		return "memory"
	}
	return "postgres"
}
