package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	BlobBackendMemory = "memory"
	BlobBackendMinio  = "minio"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	ServerPort     string        `env:"SERVER_PORT"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"json"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	// Параметры витрины
	MaxPhotos      int    `env:"MAX_PHOTOS" envDefault:"5"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"33554432"`
	Currency       string `env:"CURRENCY" envDefault:"AED"`

	// Пустой ключ отключает импорт фото из Unsplash
	UnsplashAPIKey string `env:"UNSPLASH_API_KEY"`

	BlobBackend string `env:"BLOB_BACKEND" envDefault:"memory"`

	// Настройки для MinIO, обязательны только при BLOB_BACKEND=minio
	MinioEndpoint        string `env:"MINIO_ENDPOINT"`
	MinioAccessKeyID     string `env:"MINIO_ACCESS_KEY_ID"`
	MinioSecretAccessKey string `env:"MINIO_SECRET_ACCESS_KEY"`
	MinioUseSSL          bool   `env:"MINIO_USE_SSL"`
	MinioBucketName      string `env:"MINIO_BUCKET_NAME" envDefault:"photoprint"`
	MinioRegion          string `env:"MINIO_REGION" envDefault:"us-east-1"`

	// Пустой URL отключает публикацию уведомлений в очередь
	RabbitMQ struct {
		RabbitMQURL       string `env:"RABBITMQ_URL"`
		RabbitMQQueueName string `env:"RABBITMQ_QUEUE_NAME" envDefault:"print_order_notices"`
	}
}

// LoadConfig загружает конфигурацию из переменных окружения.
// В режиме разработки пытается загрузить .env файл.
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("ошибка загрузки .env файла: %w", err)
		}
	}
	return parse()
}

func parse() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации из окружения: %w", err)
	}

	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет значения, которые нельзя выразить тегами.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxPhotos <= 0 {
		errs = append(errs, fmt.Errorf("MAX_PHOTOS должен быть положительным, получено %d", c.MaxPhotos))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_BYTES должен быть положительным, получено %d", c.MaxUploadBytes))
	}
	if c.Currency == "" {
		errs = append(errs, errors.New("CURRENCY не может быть пустым"))
	}

	switch c.BlobBackend {
	case BlobBackendMemory:
	case BlobBackendMinio:
		if c.MinioEndpoint == "" || c.MinioAccessKeyID == "" || c.MinioSecretAccessKey == "" || c.MinioBucketName == "" || c.MinioRegion == "" {
			errs = append(errs, errors.New("для BLOB_BACKEND=minio нужны MINIO_ENDPOINT, MINIO_ACCESS_KEY_ID, MINIO_SECRET_ACCESS_KEY, MINIO_BUCKET_NAME, MINIO_REGION"))
		}
	default:
		errs = append(errs, fmt.Errorf("неизвестный BLOB_BACKEND %q (используйте 'memory' или 'minio')", c.BlobBackend))
	}

	return errors.Join(errs...)
}

// ExternalPhotosEnabled сообщает, настроен ли импорт из Unsplash.
func (c *Config) ExternalPhotosEnabled() bool {
	return c.UnsplashAPIKey != ""
}

// QueueEnabled сообщает, настроена ли очередь уведомлений.
func (c *Config) QueueEnabled() bool {
	return c.RabbitMQ.RabbitMQURL != ""
}
