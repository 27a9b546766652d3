package db

import (
	"fmt"
	"strings"
	"time"

	"rentadvance-backend/internal/domain/advance"
	"rentadvance-backend/internal/domain/review"

	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector picks the gorm driver for DB_DRIVER.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(driver) {
	case "mysql", "":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported db driver %q", driver)
}

func OpenGorm(driver, dsn string, log zerolog.Logger) (*gorm.DB, error) {
	dial, err := Dialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	db, err := OpenGormWithDialector(dial, NewLogger(log))
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(driver, "sqlite") {
		// single writer
		sqlDB, _ := db.DB()
		sqlDB.SetMaxOpenConns(1)
	}
	log.Info().Str("driver", dial.Name()).Msg("gorm: connected")
	return db, nil
}

// OpenGormWithDialector opens, sizes the pool and pings.
func OpenGormWithDialector(dial gorm.Dialector, l ...logger.Interface) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:  logger.Discard,
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
	if len(l) > 0 && l[0] != nil {
		cfg.Logger = l[0]
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the advance and review tables, then claims
// active_property_id for active rows written before the column existed.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&advance.Advance{}, &review.AdminReview{}); err != nil {
		return err
	}
	err := db.Model(&advance.Advance{}).
		Where("status IN ? AND active_property_id IS NULL", advance.ActiveStatuses).
		Update("active_property_id", gorm.Expr("property_id")).Error
	if err != nil {
		return fmt.Errorf("backfill active_property_id: %w", err)
	}
	return nil
}

type zerologWriter struct{ log zerolog.Logger }

func (w zerologWriter) Printf(format string, args ...interface{}) {
	w.log.Debug().Msgf(format, args...)
}

// NewLogger routes gorm's SQL log through zerolog. Slow queries are warned.
func NewLogger(log zerolog.Logger) logger.Interface {
	level := logger.Warn
	if log.GetLevel() <= zerolog.DebugLevel {
		level = logger.Info
	}
	return logger.New(zerologWriter{log: log.With().Str("component", "gorm").Logger()}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}
