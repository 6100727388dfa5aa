package repository

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"budget-backend/internal/app/ds"
	"budget-backend/internal/app/ledger"
)

type Repository struct {
	db *gorm.DB
}

func New(dsn string) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB wraps an already opened connection. Tests use it with an
// in-memory sqlite database.
func NewWithDB(db *gorm.DB) (*Repository, error) {
	err := db.AutoMigrate(
		&ds.User{},
		&ds.ApprovedBudget{},
		&ds.BudgetAllocation{},
		&ds.ExpenditurePlan{},
		&ds.LineItem{},
		&ds.PurchaseRequest{},
		&ds.PurchaseAllocation{},
		&ds.ActivityRequest{},
		&ds.ActivityAllocation{},
		&ds.Realignment{},
		&ds.BudgetTransaction{},
		&ds.SupportingDocument{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{
		db: db,
	}, nil
}

func (r *Repository) DB() *gorm.DB {
	return r.db
}

// lockForUpdate appends FOR UPDATE on dialects that support it. SQLite
// serializes writers on its own, so the clause is skipped there.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"})
	}
	return tx
}

func translateError(op string, err error) error {
	return ledger.WrapDBError(op, err)
}
