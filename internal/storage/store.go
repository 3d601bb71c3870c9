// Package storage persists lookup results and errors in a SQL database through gorm.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nexconsult/cep-processor/internal/models"
	"github.com/nexconsult/cep-processor/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// ResultRecord is one row of the results table, keyed by normalized CEP
type ResultRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	CEP       string    `gorm:"column:cep;uniqueIndex;not null"`
	Data      string    `gorm:"column:data;type:json;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName returns the table name
func (ResultRecord) TableName() string { return "results" }

// ErrorRecord is one row of the append-only errors table
type ErrorRecord struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	CEP          string    `gorm:"column:cep;index;not null"`
	ErrorMessage string    `gorm:"column:error_message;not null"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

// TableName returns the table name
func (ErrorRecord) TableName() string { return "errors" }

// SaveStats reports what SaveResults did. Unknown counts records that were
// saved but whose prior existence could not be checked.
type SaveStats struct {
	Inserted int
	Updated  int
	Skipped  int
	Unknown  int
}

// Store is the structured store sink
type Store struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// Open opens (creating if needed) the SQLite database at path and migrates its schema
func Open(path string, logger *logrus.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	return New(db, logger)
}

// New wraps an existing gorm connection and migrates the schema
func New(db *gorm.DB, logger *logrus.Logger) (*Store, error) {
	if err := db.AutoMigrate(&ResultRecord{}, &ErrorRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Debug("Database schema ready")
	return &Store{db: db, logger: logger}, nil
}

// Name identifies the sink in logs and metrics
func (s *Store) Name() string { return "database" }

// Write persists a run: results are upserted, errors appended
func (s *Store) Write(ctx context.Context, run *models.Run) error {
	stats, err := s.SaveResults(ctx, run.Results)
	if err != nil {
		return err
	}
	if len(run.Results) > 0 {
		s.logger.WithFields(logrus.Fields{
			"inserted": stats.Inserted,
			"updated":  stats.Updated,
			"skipped":  stats.Skipped,
			"unknown":  stats.Unknown,
		}).Info("Results saved to database")
	}

	saved, err := s.SaveErrors(ctx, run.Errors)
	if err != nil {
		return err
	}
	if saved > 0 {
		s.logger.WithField("errors", saved).Info("Errors saved to database")
	}

	return nil
}

// SaveResults upserts each result keyed by normalized CEP. A failing record is
// logged and skipped.
func (s *Store) SaveResults(ctx context.Context, results []*models.LookupResult) (SaveStats, error) {
	var stats SaveStats
	if len(results) == 0 {
		return stats, nil
	}

	db := s.db.WithContext(ctx).Session(&gorm.Session{SkipDefaultTransaction: true})

	for _, result := range results {
		cep := utils.NormalizeCEP(result.CEP())

		var existing int64
		checkErr := db.Model(&ResultRecord{}).Where("cep = ?", cep).Count(&existing).Error
		if checkErr != nil {
			s.logger.WithFields(logrus.Fields{
				"cep":   cep,
				"error": checkErr.Error(),
			}).Warn("Failed to check existing CEP result")
		}

		if err := s.upsert(db, cep, result); err != nil {
			stats.Skipped++
			s.logger.WithFields(logrus.Fields{
				"cep":   cep,
				"error": err.Error(),
			}).Error("Failed to save CEP result")
			continue
		}

		switch {
		case checkErr != nil:
			stats.Unknown++
		case existing > 0:
			stats.Updated++
		default:
			stats.Inserted++
		}
	}

	return stats, nil
}

func (s *Store) upsert(db *gorm.DB, cep string, result *models.LookupResult) error {
	if cep == "" {
		return errors.New("result has no cep field")
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	record := ResultRecord{CEP: cep, Data: string(data), CreatedAt: time.Now()}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cep"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "created_at"}),
	}).Create(&record).Error
}

// SaveErrors appends one row per lookup error. Errors are never deduplicated.
func (s *Store) SaveErrors(ctx context.Context, lookupErrors []models.LookupError) (int, error) {
	if len(lookupErrors) == 0 {
		return 0, nil
	}

	db := s.db.WithContext(ctx)
	saved := 0
	for _, lookupErr := range lookupErrors {
		record := ErrorRecord{
			CEP:          lookupErr.CEP,
			ErrorMessage: lookupErr.Error,
			CreatedAt:    lookupErr.Timestamp,
		}
		if err := db.Create(&record).Error; err != nil {
			s.logger.WithFields(logrus.Fields{
				"cep":   lookupErr.CEP,
				"error": err.Error(),
			}).Error("Failed to save lookup error")
			continue
		}
		saved++
	}

	return saved, nil
}

// CountResults returns the number of stored results
func (s *Store) CountResults(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&ResultRecord{}).Count(&count).Error
	return count, err
}

// CountErrors returns the number of stored errors
func (s *Store) CountErrors(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&ErrorRecord{}).Count(&count).Error
	return count, err
}

// FindResult loads the stored result of a CEP
func (s *Store) FindResult(ctx context.Context, cep string) (*models.LookupResult, error) {
	var record ResultRecord
	err := s.db.WithContext(ctx).Where("cep = ?", utils.NormalizeCEP(cep)).First(&record).Error
	if err != nil {
		return nil, err
	}

	var result models.LookupResult
	if err := json.Unmarshal([]byte(record.Data), &result); err != nil {
		return nil, fmt.Errorf("failed to decode stored result: %w", err)
	}
	return &result, nil
}

// Health returns store health status
func (s *Store) Health() map[string]interface{} {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	}
	return map[string]interface{}{
		"status": "healthy",
	}
}

// Close closes the underlying connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
