package repository

import (
	"context"

	"github.com/gioariciaga/sql-analysis/internal/customer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO customers (id, company_name, signup_date, plan_type, signup_plan_type, industry,
		                        account_owner, status, mrr, signup_mrr, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		customer.ID,
		customer.CompanyName,
		customer.SignupDate,
		customer.PlanType,
		customer.SignupPlanType,
		customer.Industry,
		customer.AccountOwner,
		customer.Status,
		customer.MRR,
		customer.SignupMRR,
		customer.Metadata,
		customer.CreatedAt,
		customer.UpdatedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]*domain.Customer, error) {
	var customers []*domain.Customer
	err := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Order("id asc").
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}
