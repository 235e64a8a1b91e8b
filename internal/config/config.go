package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN           string
	Environment     string
	TelegramToken   string // пусто — уведомления выключены (Noop)
	ExpandCron      string // cron-выражение фоновой материализации
	ExpandDaysAhead int    // горизонт материализации в днях
	MigrationsPath  string
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		DBDSN:          os.Getenv("DB_DSN"),
		Environment:    os.Getenv("ENV"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		ExpandCron:     os.Getenv("EXPAND_CRON"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
	}

	// Дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.ExpandCron == "" {
		cfg.ExpandCron = "17 3 * * *"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}

	cfg.ExpandDaysAhead = 90
	if v := os.Getenv("EXPAND_DAYS_AHEAD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("EXPAND_DAYS_AHEAD must be a positive integer, got %q", v)
		}
		cfg.ExpandDaysAhead = n
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}
