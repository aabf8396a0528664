package config

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type BotConfig struct {
	TelegramToken   string `env:"TELEGRAM_BOT_TOKEN,required" validate:"required"`
	BaseAdminChatID int64  `env:"BASE_ADMIN_CHAT_ID" envDefault:"0"`
	DatabaseURL     string `env:"DATABASE_URL" envDefault:"attendance.db" validate:"required"`
	BotDebug        bool   `env:"BOT_DEBUG" envDefault:"false"`

	// Часовой пояс организации: по нему определяются границы рабочего дня
	Timezone     string `env:"TIMEZONE" envDefault:"Local"`
	HolidaysFile string `env:"HOLIDAYS_FILE"`

	ReportWorkers int           `env:"REPORT_WORKERS" envDefault:"4" validate:"gt=0"`
	QueryTimeout  time.Duration `env:"QUERY_TIMEOUT" envDefault:"5s" validate:"gt=0"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn warning error"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	LogFile   string `env:"LOG_FILE"` // пусто - только stdout

	location *time.Location
}

var instance *BotConfig
var once sync.Once

// GetBotConfig загружает конфиг один раз за время жизни процесса
func GetBotConfig() *BotConfig {
	once.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			logrus.Fatalf("error loading env variables: %s", err.Error())
		}

		cfg, err := Load()
		if err != nil {
			logrus.Fatalf("could not load config: %s", err.Error())
		}
		instance = cfg
	})

	return instance
}

// Load читает конфиг из окружения (без .env)
func Load() (*BotConfig, error) {
	cfg := &BotConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc

	return cfg, nil
}

var validate = validator.New()

func (c *BotConfig) validate() error {
	if err := validate.Struct(c); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) && len(invalid) > 0 {
			return fmt.Errorf("invalid config field %s: failed %q check", invalid[0].Field(), invalid[0].Tag())
		}
		return err
	}
	return nil
}

// Location - часовой пояс организации
func (c *BotConfig) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}
