package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"disk-guider/internal/domain/entity"
)

type Config struct {
	TelegramToken string
	HTTPAddr      string
	LogLevel      string
	LogFormat     string

	Detection        entity.DetectionParameters
	ShowFeatures     bool
	RefineMaxWorkers int

	TracingEnabled     bool
	TracingServiceName string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()
	return FromEnv(), nil
}

// FromEnv собирает конфигурацию из переменных окружения.
func FromEnv() *Config {
	defaults := entity.DefaultDetectionParameters()
	high := getEnvInt("DISK_EDGE_THRESHOLD", defaults.HighThreshold)

	detection := entity.DetectionParameters{
		MinRadius:     getEnvInt("DISK_MIN_RADIUS", defaults.MinRadius),
		MaxRadius:     getEnvInt("DISK_MAX_RADIUS", defaults.MaxRadius),
		LowThreshold:  high / 2,
		HighThreshold: high,
		RoiEnabled:    getEnvBool("DISK_ROI_ENABLED", false),
	}

	return &Config{
		TelegramToken:      os.Getenv("TELEGRAM_TOKEN"),
		HTTPAddr:           getEnv("HTTP_ADDR", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		Detection:          detection.Normalize(),
		ShowFeatures:       getEnvBool("DISK_SHOW_FEATURES", false),
		RefineMaxWorkers:   getEnvInt("REFINE_MAX_WORKERS", 0),
		TracingEnabled:     getEnvBool("TRACING_ENABLED", false),
		TracingServiceName: getEnv("TRACING_SERVICE_NAME", "disk-guider"),
	}
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return value
	}
	return defaultValue
}
