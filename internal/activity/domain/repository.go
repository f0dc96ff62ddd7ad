package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *ActivityRecord) error
	// ListBefore returns all records dated strictly before cutoff,
	// ordered by customer then week.
	ListBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]*ActivityRecord, error)
}
