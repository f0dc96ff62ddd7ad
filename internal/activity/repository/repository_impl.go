package repository

import (
	"context"
	"time"

	"github.com/gioariciaga/sql-analysis/internal/activity/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.ActivityRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO activity_records (id, customer_id, activity_date, logins_count, feature_usage_score,
		                               support_tickets_opened, nps_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.CustomerID,
		record.ActivityDate,
		record.LoginsCount,
		record.FeatureUsageScore,
		record.SupportTicketsOpened,
		record.NPSScore,
		record.CreatedAt,
	).Error
}

func (r *repo) ListBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]*domain.ActivityRecord, error) {
	var records []*domain.ActivityRecord
	err := db.WithContext(ctx).
		Model(&domain.ActivityRecord{}).
		Where("activity_date < ?", cutoff).
		Order("customer_id asc, activity_date asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
