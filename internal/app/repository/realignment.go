package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"budget-backend/internal/app/ds"
	"budget-backend/internal/app/ledger"
)

// CreateRealignment stores a draft transfer between two line items.
// Amounts are checked for shape here; availability is re-validated
// under lock when the realignment is finalized.
func (r *Repository) CreateRealignment(re *ds.Realignment) error {
	for _, q := range ds.Quarters {
		if re.QuarterAmount(q).IsNegative() {
			return &ledger.ValidationError{Field: string(q) + "_amount", Message: "must not be negative"}
		}
	}
	if len(re.SelectedQuarters()) == 0 {
		return &ledger.ValidationError{Field: "amounts", Message: "at least one quarter must be positive"}
	}
	if re.SourceLineItemID == re.TargetLineItemID {
		return &ledger.ValidationError{Field: "target_line_item_id", Message: "source and target must differ"}
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var src, dst ds.LineItem
		if err := tx.First(&src, re.SourceLineItemID).Error; err != nil {
			return err
		}
		if err := tx.First(&dst, re.TargetLineItemID).Error; err != nil {
			return err
		}
		re.SourcePlanID = src.PlanID
		re.TargetPlanID = dst.PlanID

		for _, planID := range []uuid.UUID{src.PlanID, dst.PlanID} {
			var plan ds.ExpenditurePlan
			if err := tx.First(&plan, "id = ?", planID).Error; err != nil {
				return err
			}
			if plan.Status != ds.StatusApproved {
				return &ledger.ValidationError{
					Field:   "line_item_id",
					Message: "both line items must belong to approved plans",
				}
			}
		}

		re.ID = uuid.New()
		re.Status = ds.StatusDraft
		return tx.Create(re).Error
	})
	return translateError("create realignment", err)
}

func (r *Repository) GetRealignment(id uuid.UUID, includeArchived bool) (*ds.Realignment, error) {
	var re ds.Realignment
	tx := r.db
	if !includeArchived {
		tx = tx.Where("is_archived = ?", false)
	}
	if err := tx.First(&re, "id = ?", id).Error; err != nil {
		return nil, translateError("get realignment", err)
	}
	return &re, nil
}

// ListRealignments returns transfers touching a plan, as source or
// target.
func (r *Repository) ListRealignments(planID uuid.UUID, includeArchived bool) ([]ds.Realignment, error) {
	var res []ds.Realignment
	tx := r.db.Where("(source_plan_id = ? OR target_plan_id = ?)", planID, planID).
		Order("created_at DESC")
	if !includeArchived {
		tx = tx.Where("is_archived = ?", false)
	}
	if err := tx.Find(&res).Error; err != nil {
		return nil, translateError("list realignments", err)
	}
	return res, nil
}
