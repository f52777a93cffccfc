package main

import (
	"log/slog"
	"time"

	"github.com/fastprodman/wagerhouse/internal/config"
)

type wagerdConfig struct {
	Port            uint16        `env:"APP_PORT" envDefault:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" envDefault:"INFO"`
	AppEnv          string        `env:"APP_ENV" envDefault:"PROD"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	JournalBuffer   int           `env:"JOURNAL_BUFFER" envDefault:"1024"`

	Postgres   config.PostgresConfig
	House      config.HouseConfig
	Settlement config.SettlementConfig
}

func (c *wagerdConfig) isDev() bool { return c.AppEnv == "DEV" }
