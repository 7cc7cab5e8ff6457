package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN            string
	Environment      string
	MigrationsPath   string
	MaxCreditIssue   int
	MaterializeWeeks int
	TelegramToken    string // пустой токен выключает уведомления
	NotifyChatID     int64
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		DBDSN:            os.Getenv("DB_DSN"),
		Environment:      os.Getenv("ENV"),
		MigrationsPath:   os.Getenv("MIGRATIONS_PATH"),
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		MaxCreditIssue:   envInt("MAX_CREDIT_ISSUE", 100),
		MaterializeWeeks: envInt("MATERIALIZE_WEEKS", 4),
		NotifyChatID:     int64(envInt("NOTIFY_CHAT_ID", 0)),
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %d", key, raw, fallback)
		return fallback
	}
	return value
}
