package db

import (
	"log"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	DSN    string // postgres://... or a sqlite path such as file:veriscan.db
	LogSQL bool
}

func OpenGorm(cfg Config) (*gorm.DB, error) {
	lvl := logger.Silent
	if cfg.LogSQL {
		lvl = logger.Info
	}

	dial := postgres.Open(cfg.DSN)
	if strings.HasPrefix(cfg.DSN, "file:") || strings.HasSuffix(cfg.DSN, ".db") || cfg.DSN == ":memory:" {
		dial = sqlite.Open(cfg.DSN)
	}

	return gorm.Open(dial, &gorm.Config{
		Logger: logger.New(log.New(log.Writer(), "", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  lvl,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		}),
	})
}
