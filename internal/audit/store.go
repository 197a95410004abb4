// Package audit persists scan history. Writes are fire-and-forget from the
// pipeline's point of view: a failed audit insert never fails a scan.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ScanEvent records one barcode scan: who scanned, what was decoded and
// whether the product lookup matched.
type ScanEvent struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	UserID       string    `gorm:"index;size:64" json:"user_id"`
	Barcode      string    `gorm:"size:64" json:"barcode"`
	ProductFound bool      `json:"product_found"`
	Status       string    `gorm:"size:16" json:"status"`
	ClientIP     string    `gorm:"size:64" json:"client_ip,omitempty"`
	UserAgent    string    `gorm:"size:256" json:"user_agent,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// Event statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Store is a sqlite-backed scan history store.
type Store struct {
	db *gorm.DB
}

// Open opens (and migrates) the scan history database at path. Use
// ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}
	// sqlite permits a single writer, and an in-memory database exists per
	// connection; one pooled connection serves both cases.
	if sqlDB, derr := db.DB(); derr == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&ScanEvent{}); err != nil {
		return nil, fmt.Errorf("migrating audit schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Insert stores one event. A missing ID or timestamp is filled in.
func (s *Store) Insert(ctx context.Context, ev *ScanEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("inserting scan event: %w", err)
	}
	return nil
}

// Recent returns the newest events for a user, most recent first. A limit
// of 0 or less selects 50.
func (s *Store) Recent(ctx context.Context, userID string, limit int) ([]ScanEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []ScanEvent
	q := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("listing scan events: %w", err)
	}
	return events, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
