package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"budget-backend/internal/app/ds"
)

// QuarterFigures is the consumption picture of one line-item quarter.
// Available is clamped at zero for display; validation uses the raw
// value from AvailableForItem instead.
type QuarterFigures struct {
	Quarter            ds.Quarter      `json:"quarter"`
	Budgeted           decimal.Decimal `json:"budgeted"`
	PRConsumed         decimal.Decimal `json:"pr_consumed"`
	ADConsumed         decimal.Decimal `json:"ad_consumed"`
	Consumed           decimal.Decimal `json:"consumed"`
	PRReserved         decimal.Decimal `json:"pr_reserved"`
	ADReserved         decimal.Decimal `json:"ad_reserved"`
	Reserved           decimal.Decimal `json:"reserved"`
	PendingTransferOut decimal.Decimal `json:"pending_transfer_out"`
	Available          decimal.Decimal `json:"available"`
	UtilizationPct     decimal.Decimal `json:"utilization_pct"`
	PRCount            int64           `json:"pr_count"`
	ADCount            int64           `json:"ad_count"`
}

func quarterColumn(q ds.Quarter) string {
	return strings.ToLower(string(q)) + "_amount"
}

func scanSum(tx *gorm.DB, expr string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := tx.Select(expr).Row().Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func purchaseSum(db *gorm.DB, lineItemID uint, q ds.Quarter, statuses []ds.Status) (decimal.Decimal, error) {
	tx := db.Model(&ds.PurchaseAllocation{}).
		Joins("JOIN purchase_requests ON purchase_requests.id = purchase_allocations.purchase_request_id").
		Where("purchase_allocations.line_item_id = ? AND purchase_allocations.quarter = ?", lineItemID, q).
		Where("purchase_requests.status IN ?", statuses)
	return scanSum(tx, "COALESCE(SUM(purchase_allocations.amount), 0)")
}

func activitySum(db *gorm.DB, lineItemID uint, q ds.Quarter, statuses []ds.Status) (decimal.Decimal, error) {
	tx := db.Model(&ds.ActivityAllocation{}).
		Joins("JOIN activity_requests ON activity_requests.id = activity_allocations.activity_request_id").
		Where("activity_allocations.line_item_id = ? AND activity_allocations.quarter = ?", lineItemID, q).
		Where("activity_requests.status IN ?", statuses)
	return scanSum(tx, "COALESCE(SUM(activity_allocations.amount), 0)")
}

// QuarterConsumed sums allocations of finally approved purchase and
// activity requests for one line-item quarter.
func QuarterConsumed(db *gorm.DB, lineItemID uint, q ds.Quarter) (decimal.Decimal, error) {
	pr, err := purchaseSum(db, lineItemID, q, []ds.Status{ds.StatusApproved})
	if err != nil {
		return decimal.Zero, err
	}
	ad, err := activitySum(db, lineItemID, q, []ds.Status{ds.StatusApproved})
	if err != nil {
		return decimal.Zero, err
	}
	return pr.Add(ad), nil
}

// QuarterReserved sums allocations of in-flight purchase and activity
// requests for one line-item quarter.
func QuarterReserved(db *gorm.DB, lineItemID uint, q ds.Quarter) (decimal.Decimal, error) {
	pr, err := purchaseSum(db, lineItemID, q, ds.InFlightStatuses)
	if err != nil {
		return decimal.Zero, err
	}
	ad, err := activitySum(db, lineItemID, q, ds.InFlightStatuses)
	if err != nil {
		return decimal.Zero, err
	}
	return pr.Add(ad), nil
}

// PendingRealignmentOut sums the outbound amounts of in-flight
// realignments sourcing from the line item in one quarter. Pass
// exclude != uuid.Nil to leave out the realignment being finalized,
// so it does not count against itself.
func PendingRealignmentOut(db *gorm.DB, lineItemID uint, q ds.Quarter, exclude uuid.UUID) (decimal.Decimal, error) {
	if !q.Valid() {
		return decimal.Zero, &ValidationError{Field: "quarter", Message: fmt.Sprintf("unknown quarter %q", q)}
	}
	tx := db.Model(&ds.Realignment{}).
		Where("source_line_item_id = ? AND status IN ?", lineItemID, ds.InFlightStatuses)
	if exclude != uuid.Nil {
		tx = tx.Where("id <> ?", exclude)
	}
	return scanSum(tx, fmt.Sprintf("COALESCE(SUM(%s), 0)", quarterColumn(q)))
}

// AvailableForItem is the gate value for committing funds against an
// already loaded (typically row-locked) line item:
//
//	budgeted - consumed - reserved - pending outbound realignments
//
// The result may be negative and is not clamped.
func AvailableForItem(db *gorm.DB, li *ds.LineItem, q ds.Quarter, excludeRealignment uuid.UUID) (decimal.Decimal, error) {
	consumed, err := QuarterConsumed(db, li.ID, q)
	if err != nil {
		return decimal.Zero, err
	}
	reserved, err := QuarterReserved(db, li.ID, q)
	if err != nil {
		return decimal.Zero, err
	}
	pendingOut, err := PendingRealignmentOut(db, li.ID, q, excludeRealignment)
	if err != nil {
		return decimal.Zero, err
	}
	return li.QuarterAmount(q).Sub(consumed).Sub(reserved).Sub(pendingOut), nil
}

// AvailableForCommit loads the line item and delegates to
// AvailableForItem.
func AvailableForCommit(db *gorm.DB, lineItemID uint, q ds.Quarter, excludeRealignment uuid.UUID) (decimal.Decimal, error) {
	var li ds.LineItem
	if err := db.First(&li, lineItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, err
	}
	return AvailableForItem(db, &li, q, excludeRealignment)
}

// QuarterBreakdown assembles the full consumption picture of one
// line-item quarter, including per-type splits and document counts.
func QuarterBreakdown(db *gorm.DB, li *ds.LineItem, q ds.Quarter) (*QuarterFigures, error) {
	f := &QuarterFigures{Quarter: q, Budgeted: li.QuarterAmount(q)}

	var err error
	if f.PRConsumed, err = purchaseSum(db, li.ID, q, []ds.Status{ds.StatusApproved}); err != nil {
		return nil, err
	}
	if f.ADConsumed, err = activitySum(db, li.ID, q, []ds.Status{ds.StatusApproved}); err != nil {
		return nil, err
	}
	if f.PRReserved, err = purchaseSum(db, li.ID, q, ds.InFlightStatuses); err != nil {
		return nil, err
	}
	if f.ADReserved, err = activitySum(db, li.ID, q, ds.InFlightStatuses); err != nil {
		return nil, err
	}
	if f.PendingTransferOut, err = PendingRealignmentOut(db, li.ID, q, uuid.Nil); err != nil {
		return nil, err
	}
	f.Consumed = f.PRConsumed.Add(f.ADConsumed)
	f.Reserved = f.PRReserved.Add(f.ADReserved)

	active := append([]ds.Status{ds.StatusApproved}, ds.InFlightStatuses...)
	err = db.Model(&ds.PurchaseAllocation{}).
		Joins("JOIN purchase_requests ON purchase_requests.id = purchase_allocations.purchase_request_id").
		Where("purchase_allocations.line_item_id = ? AND purchase_allocations.quarter = ?", li.ID, q).
		Where("purchase_requests.status IN ?", active).
		Distinct("purchase_allocations.purchase_request_id").
		Count(&f.PRCount).Error
	if err != nil {
		return nil, err
	}
	err = db.Model(&ds.ActivityAllocation{}).
		Joins("JOIN activity_requests ON activity_requests.id = activity_allocations.activity_request_id").
		Where("activity_allocations.line_item_id = ? AND activity_allocations.quarter = ?", li.ID, q).
		Where("activity_requests.status IN ?", active).
		Distinct("activity_allocations.activity_request_id").
		Count(&f.ADCount).Error
	if err != nil {
		return nil, err
	}

	available := f.Budgeted.Sub(f.Consumed).Sub(f.Reserved).Sub(f.PendingTransferOut)
	if available.IsNegative() {
		available = decimal.Zero
	}
	f.Available = available

	if f.Budgeted.IsPositive() {
		f.UtilizationPct = f.Consumed.Div(f.Budgeted).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return f, nil
}

// LineItemBreakdown returns QuarterBreakdown for all four quarters.
func LineItemBreakdown(db *gorm.DB, li *ds.LineItem) ([]QuarterFigures, error) {
	out := make([]QuarterFigures, 0, len(ds.Quarters))
	for _, q := range ds.Quarters {
		f, err := QuarterBreakdown(db, li, q)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, nil
}

// AvailablePlanBudget is the dual-source ceiling for an allocation:
// once a plan is finally approved, the plan total minus consuming
// usage governs; before that, the allocation remaining balance does.
func AvailablePlanBudget(db *gorm.DB, allocationID uint) (decimal.Decimal, error) {
	var alloc ds.BudgetAllocation
	if err := db.First(&alloc, allocationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, err
	}

	var plan ds.ExpenditurePlan
	err := db.Where("budget_allocation_id = ? AND status = ? AND is_archived = ?",
		allocationID, ds.StatusApproved, false).
		Order("final_approved_at DESC").
		First(&plan).Error
	switch {
	case err == nil:
		return plan.TotalAmount.Sub(alloc.TotalUsed()), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return alloc.RemainingBalance, nil
	default:
		return decimal.Zero, err
	}
}

// PlanConsumed sums approved and in-flight consumption across all line
// items of a plan.
func PlanConsumed(db *gorm.DB, planID uuid.UUID) (decimal.Decimal, error) {
	active := append([]ds.Status{ds.StatusApproved}, ds.InFlightStatuses...)

	tx := db.Model(&ds.PurchaseAllocation{}).
		Joins("JOIN line_items ON line_items.id = purchase_allocations.line_item_id").
		Joins("JOIN purchase_requests ON purchase_requests.id = purchase_allocations.purchase_request_id").
		Where("line_items.plan_id = ?", planID).
		Where("purchase_requests.status IN ?", active)
	pr, err := scanSum(tx, "COALESCE(SUM(purchase_allocations.amount), 0)")
	if err != nil {
		return decimal.Zero, err
	}

	tx = db.Model(&ds.ActivityAllocation{}).
		Joins("JOIN line_items ON line_items.id = activity_allocations.line_item_id").
		Joins("JOIN activity_requests ON activity_requests.id = activity_allocations.activity_request_id").
		Where("line_items.plan_id = ?", planID).
		Where("activity_requests.status IN ?", active)
	ad, err := scanSum(tx, "COALESCE(SUM(activity_allocations.amount), 0)")
	if err != nil {
		return decimal.Zero, err
	}
	return pr.Add(ad), nil
}

// PlanRemaining is the plan total minus approved and in-flight
// consumption.
func PlanRemaining(db *gorm.DB, planID uuid.UUID) (decimal.Decimal, error) {
	var plan ds.ExpenditurePlan
	if err := db.First(&plan, "id = ?", planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, err
	}
	consumed, err := PlanConsumed(db, planID)
	if err != nil {
		return decimal.Zero, err
	}
	return plan.TotalAmount.Sub(consumed), nil
}
