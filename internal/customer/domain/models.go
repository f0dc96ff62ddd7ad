package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// PlanType is the ordered plan tier of an account.
type PlanType string

const (
	PlanStarter      PlanType = "starter"
	PlanProfessional PlanType = "professional"
	PlanEnterprise   PlanType = "enterprise"
)

// Rank orders plan tiers: Starter < Professional < Enterprise.
// Unknown values rank below Starter.
func (p PlanType) Rank() int {
	switch p {
	case PlanStarter:
		return 1
	case PlanProfessional:
		return 2
	case PlanEnterprise:
		return 3
	default:
		return 0
	}
}

// Status is the lifecycle status of an account.
type Status string

const (
	StatusActive  Status = "active"
	StatusAtRisk  Status = "at_risk"
	StatusChurned Status = "churned"
)

// Customer is one account in the master record set. Owned by the external
// store; the engine only reads snapshots. plan_type, status and mrr are
// updated externally over time; signup_plan_type and signup_mrr are the
// values captured at signup and never change.
type Customer struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	CompanyName    string            `gorm:"not null" json:"company_name"`
	SignupDate     time.Time         `gorm:"not null;index" json:"signup_date"`
	PlanType       PlanType          `gorm:"type:text;not null" json:"plan_type"`
	SignupPlanType PlanType          `gorm:"type:text;not null" json:"signup_plan_type"`
	Industry       string            `json:"industry,omitempty"`
	AccountOwner   string            `json:"account_owner,omitempty"`
	Status         Status            `gorm:"type:text;not null" json:"status"`
	MRR            float64           `gorm:"column:mrr;not null" json:"mrr"`
	SignupMRR      float64           `gorm:"column:signup_mrr;not null" json:"signup_mrr"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }

// Churned reports whether the account has left.
func (c Customer) Churned() bool { return c.Status == StatusChurned }

// Upgraded reports whether the account moved to a higher plan tier since signup.
func (c Customer) Upgraded() bool { return c.PlanType.Rank() > c.SignupPlanType.Rank() }

// CohortMonth returns the calendar month of signup, formatted YYYY-MM.
func (c Customer) CohortMonth() string { return c.SignupDate.UTC().Format("2006-01") }
