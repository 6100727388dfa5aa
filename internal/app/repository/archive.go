package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"budget-backend/internal/app/ds"
)

func archiveValues(at ds.ArchiveType, byID *uint, reason string) map[string]interface{} {
	now := time.Now()
	return map[string]interface{}{
		"is_archived":    true,
		"archived_at":    &now,
		"archived_by_id": byID,
		"archive_type":   at,
		"archive_reason": reason,
	}
}

var restoreValues = map[string]interface{}{
	"is_archived":    false,
	"archived_at":    nil,
	"archived_by_id": nil,
	"archive_type":   "",
	"archive_reason": "",
}

func allocationPlanIDs(tx *gorm.DB, allocationID uint) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := tx.Model(&ds.ExpenditurePlan{}).
		Where("budget_allocation_id = ?", allocationID).
		Pluck("id", &ids).Error
	return ids, err
}

// archiveAllocationTree marks an allocation and every document under it.
// Already archived records keep their original archive metadata.
func archiveAllocationTree(tx *gorm.DB, allocationID uint, vals map[string]interface{}) error {
	err := tx.Model(&ds.BudgetAllocation{}).
		Where("id = ? AND is_archived = ?", allocationID, false).
		Updates(vals).Error
	if err != nil {
		return err
	}

	planIDs, err := allocationPlanIDs(tx, allocationID)
	if err != nil {
		return err
	}
	err = tx.Model(&ds.ExpenditurePlan{}).
		Where("budget_allocation_id = ? AND is_archived = ?", allocationID, false).
		Updates(vals).Error
	if err != nil {
		return err
	}
	err = tx.Model(&ds.PurchaseRequest{}).
		Where("budget_allocation_id = ? AND is_archived = ?", allocationID, false).
		Updates(vals).Error
	if err != nil {
		return err
	}
	err = tx.Model(&ds.ActivityRequest{}).
		Where("budget_allocation_id = ? AND is_archived = ?", allocationID, false).
		Updates(vals).Error
	if err != nil {
		return err
	}
	if len(planIDs) > 0 {
		err = tx.Model(&ds.Realignment{}).
			Where("(source_plan_id IN ? OR target_plan_id IN ?)", planIDs, planIDs).
			Where("is_archived = ?", false).
			Updates(vals).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// restoreAllocationTree reverses archiveAllocationTree. When
// fiscalOnly is set, only fiscal-year archived records come back, so
// manually hidden documents stay hidden.
func restoreAllocationTree(tx *gorm.DB, allocationID uint, fiscalOnly bool) error {
	filter := func(q *gorm.DB) *gorm.DB {
		q = q.Where("is_archived = ?", true)
		if fiscalOnly {
			q = q.Where("archive_type = ?", ds.ArchiveFiscalYear)
		}
		return q
	}

	err := filter(tx.Model(&ds.BudgetAllocation{}).Where("id = ?", allocationID)).
		Updates(restoreValues).Error
	if err != nil {
		return err
	}

	planIDs, err := allocationPlanIDs(tx, allocationID)
	if err != nil {
		return err
	}
	err = filter(tx.Model(&ds.ExpenditurePlan{}).Where("budget_allocation_id = ?", allocationID)).
		Updates(restoreValues).Error
	if err != nil {
		return err
	}
	err = filter(tx.Model(&ds.PurchaseRequest{}).Where("budget_allocation_id = ?", allocationID)).
		Updates(restoreValues).Error
	if err != nil {
		return err
	}
	err = filter(tx.Model(&ds.ActivityRequest{}).Where("budget_allocation_id = ?", allocationID)).
		Updates(restoreValues).Error
	if err != nil {
		return err
	}
	if len(planIDs) > 0 {
		err = filter(tx.Model(&ds.Realignment{}).
			Where("(source_plan_id IN ? OR target_plan_id IN ?)", planIDs, planIDs)).
			Updates(restoreValues).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// ArchiveBudgetCascade archives a budget, its allocations and every
// document under them with the given archive type.
func (r *Repository) ArchiveBudgetCascade(budgetID uint, at ds.ArchiveType, byID *uint, reason string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var budget ds.ApprovedBudget
		if err := lockForUpdate(tx).First(&budget, budgetID).Error; err != nil {
			return err
		}
		vals := archiveValues(at, byID, reason)
		err := tx.Model(&ds.ApprovedBudget{}).
			Where("id = ? AND is_archived = ?", budgetID, false).
			Updates(vals).Error
		if err != nil {
			return err
		}

		var allocIDs []uint
		err = tx.Model(&ds.BudgetAllocation{}).
			Where("approved_budget_id = ?", budgetID).
			Pluck("id", &allocIDs).Error
		if err != nil {
			return err
		}
		for _, id := range allocIDs {
			if err := archiveAllocationTree(tx, id, vals); err != nil {
				return err
			}
		}
		return nil
	})
	return translateError("archive budget", err)
}

// RestoreBudgetCascade restores a budget unconditionally and its
// subtree selectively: only fiscal-year archives come back, manual
// archives do not. Restore is deliberately narrower than archive.
func (r *Repository) RestoreBudgetCascade(budgetID uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var budget ds.ApprovedBudget
		if err := lockForUpdate(tx).First(&budget, budgetID).Error; err != nil {
			return err
		}
		err := tx.Model(&ds.ApprovedBudget{}).
			Where("id = ?", budgetID).
			Updates(restoreValues).Error
		if err != nil {
			return err
		}

		var allocIDs []uint
		err = tx.Model(&ds.BudgetAllocation{}).
			Where("approved_budget_id = ?", budgetID).
			Pluck("id", &allocIDs).Error
		if err != nil {
			return err
		}
		for _, id := range allocIDs {
			if err := restoreAllocationTree(tx, id, true); err != nil {
				return err
			}
		}
		return nil
	})
	return translateError("restore budget", err)
}

// ArchiveAllocationCascade archives one allocation and its documents.
func (r *Repository) ArchiveAllocationCascade(allocationID uint, at ds.ArchiveType, byID *uint, reason string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var alloc ds.BudgetAllocation
		if err := lockForUpdate(tx).First(&alloc, allocationID).Error; err != nil {
			return err
		}
		return archiveAllocationTree(tx, allocationID, archiveValues(at, byID, reason))
	})
	return translateError("archive allocation", err)
}

// RestoreAllocationCascade restores one allocation and all of its
// documents regardless of how they were archived.
func (r *Repository) RestoreAllocationCascade(allocationID uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var alloc ds.BudgetAllocation
		if err := lockForUpdate(tx).First(&alloc, allocationID).Error; err != nil {
			return err
		}
		return restoreAllocationTree(tx, allocationID, false)
	})
	return translateError("restore allocation", err)
}

// ArchivePastYears archives every active budget from fiscal years
// before the given time. Run as a batch job at year rollover.
func (r *Repository) ArchivePastYears(now time.Time) (int, error) {
	currentYear := fmt.Sprint(now.Year())
	var ids []uint
	err := r.db.Model(&ds.ApprovedBudget{}).
		Where("fiscal_year < ? AND is_archived = ?", currentYear, false).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, translateError("archive past years", err)
	}
	for _, id := range ids {
		reason := fmt.Sprintf("fiscal year ended before %s", currentYear)
		if err := r.ArchiveBudgetCascade(id, ds.ArchiveFiscalYear, nil, reason); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}
