// Package domain contains persistence models for the weekly activity stream.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ActivityRecord stores one customer's metrics for one calendar week.
// Records accumulate append-only; at most one record exists per
// (customer, week). Duplicate week dates are a data-quality violation
// upstream and their ordering is undefined here.
type ActivityRecord struct {
	ID                   snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID           snowflake.ID `gorm:"not null;uniqueIndex:idx_activity_customer_week,priority:1" json:"customer_id"`
	ActivityDate         time.Time    `gorm:"not null;uniqueIndex:idx_activity_customer_week,priority:2" json:"activity_date"`
	LoginsCount          int          `gorm:"not null" json:"logins_count"`
	FeatureUsageScore    float64      `gorm:"not null" json:"feature_usage_score"`
	SupportTicketsOpened int          `gorm:"not null" json:"support_tickets_opened"`
	NPSScore             *int         `gorm:"column:nps_score" json:"nps_score,omitempty"`
	CreatedAt            time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ActivityRecord) TableName() string { return "activity_records" }
