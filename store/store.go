// Package store persists what the blinks hand out: built transactions,
// created challenges and Never Have I Ever answers. It is optional; a nil
// *Store records nothing.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"blinks/apperr"
)

const maxHistory = 100

var ErrNotConfigured = errors.New("database not configured")

type Store struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// Open connects to postgres and migrates the schema.
func Open(dsn string, log logrus.FieldLogger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	return New(db, log)
}

// New wraps an open gorm handle of any dialect.
func New(db *gorm.DB, log logrus.FieldLogger) (*Store, error) {
	if err := db.AutoMigrate(&ActionRecord{}, &NeverHaveIEverAnswer{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Enabled reports whether a database is attached.
func (s *Store) Enabled() bool {
	return s != nil && s.db != nil
}

// RecordAction inserts rec. Without a database it does nothing.
func (s *Store) RecordAction(ctx context.Context, rec *ActionRecord) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("store: record %s: %w", rec.Action, err)
	}
	return nil
}

// History - newest actions of account first, limit capped at 100
func (s *Store) History(ctx context.Context, account string, limit int) ([]ActionRecord, error) {
	if !s.Enabled() {
		return nil, apperr.Dependency("database not configured", ErrNotConfigured)
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > maxHistory {
		limit = maxHistory
	}
	var records []ActionRecord
	err := s.db.WithContext(ctx).
		Where("account = ?", account).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, apperr.Dependency("Failed to load history", err)
	}
	return records, nil
}

// SaveAnswer stores one Never Have I Ever response.
func (s *Store) SaveAnswer(ctx context.Context, wallet, answer1, answer2 string) error {
	if !s.Enabled() {
		return apperr.Dependency("database not configured", ErrNotConfigured)
	}
	ans := NeverHaveIEverAnswer{Wallet: wallet, Answer1: answer1, Answer2: answer2}
	if err := s.db.WithContext(ctx).Create(&ans).Error; err != nil {
		return apperr.Dependency("Failed to store answer", err)
	}
	return nil
}

// AnswerPercentages splits every stored first answer into "I Have" and the
// rest.
func (s *Store) AnswerPercentages(ctx context.Context) (Percentages, error) {
	if !s.Enabled() {
		return Percentages{}, apperr.Dependency("database not configured", ErrNotConfigured)
	}
	var total, have int64
	db := s.db.WithContext(ctx).Model(&NeverHaveIEverAnswer{})
	if err := db.Count(&total).Error; err != nil {
		return Percentages{}, apperr.Dependency("Failed to count answers", err)
	}
	if err := s.db.WithContext(ctx).Model(&NeverHaveIEverAnswer{}).
		Where("answer1 = ?", AnswerHave).
		Count(&have).Error; err != nil {
		return Percentages{}, apperr.Dependency("Failed to count answers", err)
	}

	p := Percentages{Total: total}
	if total > 0 {
		p.Have = float64(have) / float64(total) * 100
		p.HaveNever = float64(total-have) / float64(total) * 100
	}
	return p, nil
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if !s.Enabled() {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
