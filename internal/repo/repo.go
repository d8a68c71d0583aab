package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormRepo struct {
	DB *gorm.DB
}

// Transaction runs fn against a repo bound to one transaction, for
// multi-step writes that live in the service layer.
func (r *GormRepo) Transaction(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrAlreadyCancelled = errors.New("order already cancelled")
	ErrNotCancellable   = errors.New("order can no longer be cancelled")
)

// lockForUpdate takes row locks on postgres. sqlite (tests) rejects
// FOR UPDATE and serializes writers anyway.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
