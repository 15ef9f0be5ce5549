package app

// Config описывает настройки запуска сервиса заказов.
type Config struct {
	// HTTPAddr — адрес основного JSON API.
	HTTPAddr string
	// MetricsAddr — адрес служебного сервера: метрики и health-пробы.
	MetricsAddr string
	// PostgresDSN — строка подключения к PostgreSQL.
	// Пустое значение включает in-memory хранилище.
	PostgresDSN string
	// KafkaBrokers — список брокеров через запятую. Пустое значение отключает публикацию событий.
	KafkaBrokers string
	// PostgresAutoMigrate — применять миграции схемы при старте.
	PostgresAutoMigrate bool
}

// DefaultConfig возвращает базовые адреса и поведение по умолчанию.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		MetricsAddr:         ":9090",
		PostgresAutoMigrate: true,
	}
}
