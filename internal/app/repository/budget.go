package repository

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"budget-backend/internal/app/ds"
	"budget-backend/internal/app/ledger"
)

func (r *Repository) CreateApprovedBudget(b *ds.ApprovedBudget) error {
	if !b.Amount.IsPositive() {
		return &ledger.ValidationError{Field: "amount", Message: "must be positive"}
	}
	if b.FiscalYear == "" {
		return &ledger.ValidationError{Field: "fiscal_year", Message: "required"}
	}
	b.RemainingBudget = b.Amount
	b.IsActive = true
	return translateError("create approved budget", r.db.Create(b).Error)
}

func (r *Repository) GetApprovedBudget(id uint, includeArchived bool) (*ds.ApprovedBudget, error) {
	var b ds.ApprovedBudget
	tx := r.db
	if !includeArchived {
		tx = tx.Where("is_archived = ?", false)
	}
	if err := tx.First(&b, id).Error; err != nil {
		return nil, translateError("get approved budget", err)
	}
	return &b, nil
}

func (r *Repository) ListApprovedBudgets(includeArchived bool) ([]ds.ApprovedBudget, error) {
	var budgets []ds.ApprovedBudget
	tx := r.db.Order("fiscal_year DESC")
	if !includeArchived {
		tx = tx.Where("is_archived = ?", false)
	}
	if err := tx.Find(&budgets).Error; err != nil {
		return nil, translateError("list approved budgets", err)
	}
	return budgets, nil
}

// CreateAllocation carves a share of an approved budget out for one end
// user. The budget row is locked for the balance check and decrement,
// and an audit row records the movement.
func (r *Repository) CreateAllocation(alloc *ds.BudgetAllocation, createdBy *uint) error {
	if !alloc.AllocatedAmount.IsPositive() {
		return &ledger.ValidationError{Field: "allocated_amount", Message: "must be positive"}
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var budget ds.ApprovedBudget
		if err := lockForUpdate(tx).First(&budget, alloc.ApprovedBudgetID).Error; err != nil {
			return err
		}
		if budget.IsArchived {
			return &ledger.ValidationError{Field: "approved_budget_id", Message: "budget is archived"}
		}
		if alloc.AllocatedAmount.GreaterThan(budget.RemainingBudget) {
			return &ledger.ValidationError{
				Field: "allocated_amount",
				Message: fmt.Sprintf("exceeds remaining budget %s",
					budget.RemainingBudget.StringFixed(2)),
			}
		}

		alloc.RemainingBalance = alloc.AllocatedAmount
		alloc.IsActive = true
		if err := tx.Create(alloc).Error; err != nil {
			return err
		}

		newRemaining := budget.RemainingBudget.Sub(alloc.AllocatedAmount)
		if err := tx.Model(&budget).Update("remaining_budget", newRemaining).Error; err != nil {
			return err
		}

		return tx.Create(&ds.BudgetTransaction{
			AllocationID:    alloc.ID,
			TransactionType: ds.TxAllocationCreated,
			Amount:          alloc.AllocatedAmount,
			PreviousBalance: budget.RemainingBudget,
			NewBalance:      newRemaining,
			Remarks:         fmt.Sprintf("allocation for %s", alloc.Department),
			CreatedByID:     createdBy,
		}).Error
	})
	return translateError("create allocation", err)
}

// UpdateAllocationAmount resizes an allocation. The new amount may not
// drop below what the end user has already consumed, and the budget
// remaining moves by the difference.
func (r *Repository) UpdateAllocationAmount(allocationID uint, newAmount decimal.Decimal, updatedBy *uint) error {
	if !newAmount.IsPositive() {
		return &ledger.ValidationError{Field: "allocated_amount", Message: "must be positive"}
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var alloc ds.BudgetAllocation
		if err := lockForUpdate(tx).First(&alloc, allocationID).Error; err != nil {
			return err
		}
		used := alloc.TotalUsed()
		if newAmount.LessThan(used) {
			return &ledger.ValidationError{
				Field: "allocated_amount",
				Message: fmt.Sprintf("below already consumed amount %s",
					used.StringFixed(2)),
			}
		}

		var budget ds.ApprovedBudget
		if err := lockForUpdate(tx).First(&budget, alloc.ApprovedBudgetID).Error; err != nil {
			return err
		}
		delta := newAmount.Sub(alloc.AllocatedAmount)
		if delta.GreaterThan(budget.RemainingBudget) {
			return &ledger.ValidationError{
				Field: "allocated_amount",
				Message: fmt.Sprintf("increase exceeds remaining budget %s",
					budget.RemainingBudget.StringFixed(2)),
			}
		}

		prevBalance := alloc.RemainingBalance
		newBalance := alloc.RemainingBalance.Add(delta)
		err := tx.Model(&alloc).Updates(map[string]interface{}{
			"allocated_amount":  newAmount,
			"remaining_balance": newBalance,
		}).Error
		if err != nil {
			return err
		}
		err = tx.Model(&budget).
			Update("remaining_budget", budget.RemainingBudget.Sub(delta)).Error
		if err != nil {
			return err
		}

		return tx.Create(&ds.BudgetTransaction{
			AllocationID:    alloc.ID,
			TransactionType: ds.TxAllocationModified,
			Amount:          delta,
			PreviousBalance: prevBalance,
			NewBalance:      newBalance,
			Remarks:         "allocation resized",
			CreatedByID:     updatedBy,
		}).Error
	})
	return translateError("update allocation", err)
}

func (r *Repository) GetAllocation(id uint, includeArchived bool) (*ds.BudgetAllocation, error) {
	var alloc ds.BudgetAllocation
	tx := r.db
	if !includeArchived {
		tx = tx.Where("is_archived = ?", false)
	}
	if err := tx.First(&alloc, id).Error; err != nil {
		return nil, translateError("get allocation", err)
	}
	return &alloc, nil
}

func (r *Repository) ListAllocations(budgetID uint, includeArchived bool) ([]ds.BudgetAllocation, error) {
	var allocs []ds.BudgetAllocation
	tx := r.db.Where("approved_budget_id = ?", budgetID).Order("id")
	if !includeArchived {
		tx = tx.Where("is_archived = ?", false)
	}
	if err := tx.Find(&allocs).Error; err != nil {
		return nil, translateError("list allocations", err)
	}
	return allocs, nil
}

func (r *Repository) ListTransactions(allocationID uint) ([]ds.BudgetTransaction, error) {
	var txs []ds.BudgetTransaction
	err := r.db.Where("allocation_id = ?", allocationID).
		Order("created_at, id").Find(&txs).Error
	if err != nil {
		return nil, translateError("list transactions", err)
	}
	return txs, nil
}
