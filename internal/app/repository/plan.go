package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"budget-backend/internal/app/ds"
	"budget-backend/internal/app/ledger"
)

func validateLineItem(li *ds.LineItem) error {
	if li.ItemName == "" {
		return &ledger.ValidationError{Field: "item_name", Message: "required"}
	}
	if li.Category == "" {
		return &ledger.ValidationError{Field: "category", Message: "required"}
	}
	for _, q := range ds.Quarters {
		if li.QuarterAmount(q).IsNegative() {
			return &ledger.ValidationError{
				Field:   fmt.Sprintf("%s_amount", q),
				Message: "must not be negative",
			}
		}
	}
	return nil
}

// CreatePlan stores a draft plan with its line items. The plan total is
// always derived from the items, never taken from the caller.
func (r *Repository) CreatePlan(plan *ds.ExpenditurePlan, items []ds.LineItem) error {
	if plan.BudgetAllocationID == 0 {
		return &ledger.ValidationError{Field: "budget_allocation_id", Message: "required"}
	}
	if len(items) == 0 {
		return &ledger.ValidationError{Field: "line_items", Message: "at least one required"}
	}
	total := decimal.Zero
	for i := range items {
		if err := validateLineItem(&items[i]); err != nil {
			return err
		}
		total = total.Add(items[i].Total())
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var alloc ds.BudgetAllocation
		err := tx.Where("is_archived = ?", false).First(&alloc, plan.BudgetAllocationID).Error
		if err != nil {
			return err
		}

		plan.ID = uuid.New()
		plan.Status = ds.StatusDraft
		plan.TotalAmount = total
		plan.Department = alloc.Department
		if err := tx.Create(plan).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].PlanID = plan.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		plan.LineItems = items
		return nil
	})
	return translateError("create plan", err)
}

func (r *Repository) GetPlan(id uuid.UUID, includeArchived bool) (*ds.ExpenditurePlan, error) {
	var plan ds.ExpenditurePlan
	tx := r.db.Preload("LineItems")
	if !includeArchived {
		tx = tx.Where("is_archived = ?", false)
	}
	if err := tx.First(&plan, "id = ?", id).Error; err != nil {
		return nil, translateError("get plan", err)
	}
	return &plan, nil
}

func (r *Repository) ListPlans(allocationID uint, includeArchived bool) ([]ds.ExpenditurePlan, error) {
	var plans []ds.ExpenditurePlan
	tx := r.db.Where("budget_allocation_id = ?", allocationID).Order("created_at DESC")
	if !includeArchived {
		tx = tx.Where("is_archived = ?", false)
	}
	if err := tx.Find(&plans).Error; err != nil {
		return nil, translateError("list plans", err)
	}
	return plans, nil
}

func (r *Repository) GetLineItem(id uint) (*ds.LineItem, error) {
	var li ds.LineItem
	if err := r.db.First(&li, id).Error; err != nil {
		return nil, translateError("get line item", err)
	}
	return &li, nil
}

func (r *Repository) LineItems(planID uuid.UUID) ([]ds.LineItem, error) {
	var items []ds.LineItem
	err := r.db.Where("plan_id = ?", planID).Order("id").Find(&items).Error
	if err != nil {
		return nil, translateError("list line items", err)
	}
	return items, nil
}

// AddLineItem appends an item to a draft plan and recomputes the total.
func (r *Repository) AddLineItem(planID uuid.UUID, li *ds.LineItem) error {
	if err := validateLineItem(li); err != nil {
		return err
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var plan ds.ExpenditurePlan
		if err := lockForUpdate(tx).First(&plan, "id = ?", planID).Error; err != nil {
			return err
		}
		if plan.Status != ds.StatusDraft {
			return &ledger.InvalidStateTransitionError{
				DocType: ds.DocTypePlan, DocID: plan.ID.String(),
				From: plan.Status, Action: "modify line items",
			}
		}
		li.PlanID = planID
		if err := tx.Create(li).Error; err != nil {
			return err
		}
		return recomputePlanTotal(tx, planID)
	})
	return translateError("add line item", err)
}

// UpdateLineItemAmounts overwrites the quarterly amounts of a draft
// plan's item and recomputes the plan total.
func (r *Repository) UpdateLineItemAmounts(lineItemID uint, amounts map[ds.Quarter]decimal.Decimal) error {
	for q, amt := range amounts {
		if !q.Valid() {
			return &ledger.ValidationError{Field: "quarter", Message: fmt.Sprintf("unknown quarter %q", q)}
		}
		if amt.IsNegative() {
			return &ledger.ValidationError{Field: fmt.Sprintf("%s_amount", q), Message: "must not be negative"}
		}
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var li ds.LineItem
		if err := lockForUpdate(tx).First(&li, lineItemID).Error; err != nil {
			return err
		}
		var plan ds.ExpenditurePlan
		if err := lockForUpdate(tx).First(&plan, "id = ?", li.PlanID).Error; err != nil {
			return err
		}
		if plan.Status != ds.StatusDraft {
			return &ledger.InvalidStateTransitionError{
				DocType: ds.DocTypePlan, DocID: plan.ID.String(),
				From: plan.Status, Action: "modify line items",
			}
		}
		for q, amt := range amounts {
			li.SetQuarterAmount(q, amt)
		}
		err := tx.Model(&ds.LineItem{}).Where("id = ?", li.ID).Updates(map[string]interface{}{
			"q1_amount": li.Q1Amount,
			"q2_amount": li.Q2Amount,
			"q3_amount": li.Q3Amount,
			"q4_amount": li.Q4Amount,
		}).Error
		if err != nil {
			return err
		}
		return recomputePlanTotal(tx, li.PlanID)
	})
	return translateError("update line item", err)
}

// DeleteLineItem removes an item unless consuming documents reference
// it. References from any non-rejected request block the delete.
func (r *Repository) DeleteLineItem(lineItemID uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var li ds.LineItem
		if err := lockForUpdate(tx).First(&li, lineItemID).Error; err != nil {
			return err
		}

		live := append([]ds.Status{ds.StatusApproved}, ds.InFlightStatuses...)
		var prRefs, adRefs int64
		err := tx.Model(&ds.PurchaseAllocation{}).
			Joins("JOIN purchase_requests ON purchase_requests.id = purchase_allocations.purchase_request_id").
			Where("purchase_allocations.line_item_id = ?", lineItemID).
			Where("purchase_requests.status IN ?", live).
			Count(&prRefs).Error
		if err != nil {
			return err
		}
		err = tx.Model(&ds.ActivityAllocation{}).
			Joins("JOIN activity_requests ON activity_requests.id = activity_allocations.activity_request_id").
			Where("activity_allocations.line_item_id = ?", lineItemID).
			Where("activity_requests.status IN ?", live).
			Count(&adRefs).Error
		if err != nil {
			return err
		}
		if total := prRefs + adRefs; total > 0 {
			return &ledger.ReferentialIntegrityError{
				Entity: "line item", ID: fmt.Sprint(lineItemID), RefCount: total,
			}
		}

		if err := tx.Delete(&ds.LineItem{}, lineItemID).Error; err != nil {
			return err
		}
		return recomputePlanTotal(tx, li.PlanID)
	})
	return translateError("delete line item", err)
}

func recomputePlanTotal(tx *gorm.DB, planID uuid.UUID) error {
	var total decimal.Decimal
	err := tx.Model(&ds.LineItem{}).
		Where("plan_id = ?", planID).
		Select("COALESCE(SUM(q1_amount + q2_amount + q3_amount + q4_amount), 0)").
		Row().Scan(&total)
	if err != nil {
		return err
	}
	return tx.Model(&ds.ExpenditurePlan{}).
		Where("id = ?", planID).
		Update("total_amount", total).Error
}

// ApprovedPlanForAllocation returns the latest finally approved plan of
// an allocation, or ledger.ErrNotFound when none exists.
func (r *Repository) ApprovedPlanForAllocation(allocationID uint) (*ds.ExpenditurePlan, error) {
	var plan ds.ExpenditurePlan
	err := r.db.Preload("LineItems").
		Where("budget_allocation_id = ? AND status = ? AND is_archived = ?",
			allocationID, ds.StatusApproved, false).
		Order("final_approved_at DESC").
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrNotFound
		}
		return nil, translateError("get approved plan", err)
	}
	return &plan, nil
}
