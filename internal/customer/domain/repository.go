package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not_found")

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	List(ctx context.Context, db *gorm.DB) ([]*Customer, error)
}
