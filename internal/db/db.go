package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/go-hoardings/internal/models"
)

// Open connects to the preference store. Postgres DSNs are retried for a
// while to let the server start; sqlite opens immediately.
func Open(dsn string, debug bool) (*gorm.DB, error) {
	dsn = NormalizeDSN(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("empty DSN")
	}
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	if !IsPostgres(dsn) {
		db, err := gorm.Open(sqlite.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
		}
		return db, nil
	}

	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < 5; i++ {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
		if err == nil {
			break
		}
		log.Printf("[DB] attempt %d/5 failed: %v", i+1, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	log.Println("[DB] Using DSN:", MaskDSN(dsn))
	return db, nil
}

// Migrate creates or updates the console tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Preference{}); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}
	return nil
}

// ConnectAndMigrate opens the store and applies migrations.
func ConnectAndMigrate(dsn string, debug bool) (*gorm.DB, error) {
	db, err := Open(dsn, debug)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
