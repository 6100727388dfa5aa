package repository

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"budget-backend/internal/app/ds"
	"budget-backend/internal/app/ledger"
)

func validateShares(shares []ds.QuarterShare) (decimal.Decimal, error) {
	if len(shares) == 0 {
		return decimal.Zero, &ledger.ValidationError{Field: "allocations", Message: "at least one required"}
	}
	total := decimal.Zero
	for _, s := range shares {
		if !s.Quarter.Valid() {
			return decimal.Zero, &ledger.ValidationError{
				Field: "quarter", Message: fmt.Sprintf("unknown quarter %q", s.Quarter),
			}
		}
		if !s.Amount.IsPositive() {
			return decimal.Zero, &ledger.ValidationError{Field: "amount", Message: "must be positive"}
		}
		total = total.Add(s.Amount)
	}
	return total, nil
}

// checkShareItems verifies that every referenced line item belongs to
// the approved plan of the request's allocation.
func checkShareItems(tx *gorm.DB, allocationID uint, shares []ds.QuarterShare) error {
	for _, s := range shares {
		var li ds.LineItem
		if err := tx.First(&li, s.LineItemID).Error; err != nil {
			return err
		}
		var plan ds.ExpenditurePlan
		if err := tx.First(&plan, "id = ?", li.PlanID).Error; err != nil {
			return err
		}
		if plan.BudgetAllocationID != allocationID {
			return &ledger.ValidationError{
				Field:   "line_item_id",
				Message: fmt.Sprintf("line item %d belongs to another allocation", s.LineItemID),
			}
		}
		if plan.Status != ds.StatusApproved {
			return &ledger.ValidationError{
				Field:   "line_item_id",
				Message: fmt.Sprintf("plan of line item %d is not approved", s.LineItemID),
			}
		}
	}
	return nil
}

// CreatePurchaseRequest stores a draft request with its quarterly
// shares. Funds are only reserved once the request is submitted.
func (r *Repository) CreatePurchaseRequest(pr *ds.PurchaseRequest, shares []ds.QuarterShare) error {
	total, err := validateShares(shares)
	if err != nil {
		return err
	}
	if pr.PRNumber == "" {
		return &ledger.ValidationError{Field: "pr_number", Message: "required"}
	}
	err = r.db.Transaction(func(tx *gorm.DB) error {
		var alloc ds.BudgetAllocation
		err := tx.Where("is_archived = ?", false).First(&alloc, pr.BudgetAllocationID).Error
		if err != nil {
			return err
		}
		if err := checkShareItems(tx, pr.BudgetAllocationID, shares); err != nil {
			return err
		}

		pr.ID = uuid.New()
		pr.Status = ds.StatusDraft
		pr.TotalAmount = total
		pr.Department = alloc.Department
		if err := tx.Create(pr).Error; err != nil {
			return err
		}
		for _, s := range shares {
			pa := ds.PurchaseAllocation{
				PurchaseRequestID: pr.ID,
				LineItemID:        s.LineItemID,
				Quarter:           s.Quarter,
				Amount:            s.Amount,
			}
			if err := tx.Create(&pa).Error; err != nil {
				return err
			}
			pr.Allocations = append(pr.Allocations, pa)
		}
		return nil
	})
	return translateError("create purchase request", err)
}

// CreateActivityRequest is the activity counterpart of
// CreatePurchaseRequest.
func (r *Repository) CreateActivityRequest(ad *ds.ActivityRequest, shares []ds.QuarterShare) error {
	total, err := validateShares(shares)
	if err != nil {
		return err
	}
	if ad.ADNumber == "" {
		return &ledger.ValidationError{Field: "ad_number", Message: "required"}
	}
	if ad.ActivityTitle == "" {
		return &ledger.ValidationError{Field: "activity_title", Message: "required"}
	}
	err = r.db.Transaction(func(tx *gorm.DB) error {
		var alloc ds.BudgetAllocation
		err := tx.Where("is_archived = ?", false).First(&alloc, ad.BudgetAllocationID).Error
		if err != nil {
			return err
		}
		if err := checkShareItems(tx, ad.BudgetAllocationID, shares); err != nil {
			return err
		}

		ad.ID = uuid.New()
		ad.Status = ds.StatusDraft
		ad.TotalAmount = total
		ad.Department = alloc.Department
		if err := tx.Create(ad).Error; err != nil {
			return err
		}
		for _, s := range shares {
			aa := ds.ActivityAllocation{
				ActivityRequestID: ad.ID,
				LineItemID:        s.LineItemID,
				Quarter:           s.Quarter,
				Amount:            s.Amount,
			}
			if err := tx.Create(&aa).Error; err != nil {
				return err
			}
			ad.Allocations = append(ad.Allocations, aa)
		}
		return nil
	})
	return translateError("create activity request", err)
}

func (r *Repository) GetPurchaseRequest(id uuid.UUID, includeArchived bool) (*ds.PurchaseRequest, error) {
	var pr ds.PurchaseRequest
	tx := r.db.Preload("Allocations")
	if !includeArchived {
		tx = tx.Where("is_archived = ?", false)
	}
	if err := tx.First(&pr, "id = ?", id).Error; err != nil {
		return nil, translateError("get purchase request", err)
	}
	return &pr, nil
}

func (r *Repository) GetActivityRequest(id uuid.UUID, includeArchived bool) (*ds.ActivityRequest, error) {
	var ad ds.ActivityRequest
	tx := r.db.Preload("Allocations")
	if !includeArchived {
		tx = tx.Where("is_archived = ?", false)
	}
	if err := tx.First(&ad, "id = ?", id).Error; err != nil {
		return nil, translateError("get activity request", err)
	}
	return &ad, nil
}

func (r *Repository) ListPurchaseRequests(allocationID uint, includeArchived bool) ([]ds.PurchaseRequest, error) {
	var prs []ds.PurchaseRequest
	tx := r.db.Where("budget_allocation_id = ?", allocationID).Order("created_at DESC")
	if !includeArchived {
		tx = tx.Where("is_archived = ?", false)
	}
	if err := tx.Find(&prs).Error; err != nil {
		return nil, translateError("list purchase requests", err)
	}
	return prs, nil
}

func (r *Repository) ListActivityRequests(allocationID uint, includeArchived bool) ([]ds.ActivityRequest, error) {
	var ads []ds.ActivityRequest
	tx := r.db.Where("budget_allocation_id = ?", allocationID).Order("created_at DESC")
	if !includeArchived {
		tx = tx.Where("is_archived = ?", false)
	}
	if err := tx.Find(&ads).Error; err != nil {
		return nil, translateError("list activity requests", err)
	}
	return ads, nil
}
