// Package config загружает конфигурацию приложения из переменных окружения.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config - корневая конфигурация приложения.
type Config struct {
	// App - общие настройки приложения.
	App AppConfig

	// HTTP - настройки HTTP сервера мини-аппа.
	HTTP HTTPConfig

	// Learn - настройки клиента учебной платформы.
	Learn LearnConfig

	// Telegram - настройки проверки initData.
	Telegram TelegramConfig

	// Redis - настройки кеша.
	Redis RedisConfig
}

// AppConfig - общие настройки.
type AppConfig struct {
	// Environment - окружение: development, staging, production.
	Environment string `env:"MINIAPP_ENVIRONMENT" envDefault:"development"`

	// LogLevel - уровень логирования: debug, info, warn, error.
	LogLevel string `env:"MINIAPP_LOG_LEVEL" envDefault:"info"`

	// ShutdownTimeout - время на корректное завершение.
	ShutdownTimeout time.Duration `env:"MINIAPP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// IsProduction сообщает, что приложение работает в production.
func (c AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// HTTPConfig - настройки HTTP сервера.
type HTTPConfig struct {
	// Host - адрес прослушивания.
	Host string `env:"MINIAPP_HTTP_HOST" envDefault:"0.0.0.0"`

	// Port - порт прослушивания.
	Port int `env:"MINIAPP_HTTP_PORT" envDefault:"8080"`

	// ReadTimeout - максимальное время чтения запроса.
	ReadTimeout time.Duration `env:"MINIAPP_HTTP_READ_TIMEOUT" envDefault:"15s"`

	// WriteTimeout - максимальное время записи ответа.
	WriteTimeout time.Duration `env:"MINIAPP_HTTP_WRITE_TIMEOUT" envDefault:"15s"`

	// AllowedOrigins - разрешённые CORS origin'ы.
	AllowedOrigins []string `env:"MINIAPP_HTTP_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// LearnConfig - настройки клиента учебной платформы.
type LearnConfig struct {
	// BaseURL - базовый адрес REST API платформы.
	BaseURL string `env:"MINIAPP_LEARN_BASE_URL,notEmpty"`

	// Timeout - таймаут одиночного запроса.
	Timeout time.Duration `env:"MINIAPP_LEARN_TIMEOUT" envDefault:"10s"`

	// MaxRetries - число повторов для временных сбоев.
	MaxRetries int `env:"MINIAPP_LEARN_MAX_RETRIES" envDefault:"3"`
}

// TelegramConfig - настройки проверки Telegram WebApp initData.
type TelegramConfig struct {
	// BotToken - токен бота, из которого выводится ключ подписи.
	BotToken string `env:"MINIAPP_TELEGRAM_BOT_TOKEN,notEmpty"`

	// InitDataMaxAge - максимальный возраст auth_date.
	InitDataMaxAge time.Duration `env:"MINIAPP_TELEGRAM_INIT_DATA_MAX_AGE" envDefault:"24h"`
}

// RedisConfig - настройки кеша. При Enabled == false кеш отключается
// целиком и каждое чтение уходит на платформу.
type RedisConfig struct {
	// Enabled - использовать ли Redis.
	Enabled bool `env:"MINIAPP_REDIS_ENABLED" envDefault:"false"`

	// Host - адрес Redis.
	Host string `env:"MINIAPP_REDIS_HOST" envDefault:"localhost"`

	// Port - порт Redis.
	Port int `env:"MINIAPP_REDIS_PORT" envDefault:"6379"`

	// Password - пароль (пусто = без аутентификации).
	Password string `env:"MINIAPP_REDIS_PASSWORD"`

	// DB - номер базы Redis.
	DB int `env:"MINIAPP_REDIS_DB" envDefault:"0"`
}

// Load читает конфигурацию из переменных окружения.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
