package ledger_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"budget-backend/internal/app/ds"
	"budget-backend/internal/app/ledger"
	"budget-backend/internal/app/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	_, err = repository.NewWithDB(db)
	require.NoError(t, err)
	return db
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// seedLineItem creates an approved plan with one line item holding the
// given quarterly amounts.
func seedLineItem(t *testing.T, db *gorm.DB, allocID uint, q1, q2, q3, q4 int64) *ds.LineItem {
	t.Helper()
	now := time.Now()
	plan := ds.ExpenditurePlan{
		ID:                 uuid.New(),
		BudgetAllocationID: allocID,
		FiscalYear:         "2026",
		Status:             ds.StatusApproved,
		TotalAmount:        dec(q1 + q2 + q3 + q4),
		FinalApprovedAt:    &now,
	}
	require.NoError(t, db.Create(&plan).Error)
	li := ds.LineItem{
		PlanID:   plan.ID,
		Category: "MOOE",
		ItemName: "Office Supplies",
		Q1Amount: dec(q1), Q2Amount: dec(q2), Q3Amount: dec(q3), Q4Amount: dec(q4),
	}
	require.NoError(t, db.Create(&li).Error)
	return &li
}

func seedPurchase(t *testing.T, db *gorm.DB, allocID uint, status ds.Status, liID uint, q ds.Quarter, amount int64) *ds.PurchaseRequest {
	t.Helper()
	pr := ds.PurchaseRequest{
		ID:                 uuid.New(),
		PRNumber:           fmt.Sprintf("PR-%s", uuid.New().String()[:8]),
		BudgetAllocationID: allocID,
		Status:             status,
		TotalAmount:        dec(amount),
	}
	require.NoError(t, db.Create(&pr).Error)
	require.NoError(t, db.Create(&ds.PurchaseAllocation{
		PurchaseRequestID: pr.ID,
		LineItemID:        liID,
		Quarter:           q,
		Amount:            dec(amount),
	}).Error)
	return &pr
}

func seedActivity(t *testing.T, db *gorm.DB, allocID uint, status ds.Status, liID uint, q ds.Quarter, amount int64) *ds.ActivityRequest {
	t.Helper()
	ad := ds.ActivityRequest{
		ID:                 uuid.New(),
		ADNumber:           fmt.Sprintf("AD-%s", uuid.New().String()[:8]),
		BudgetAllocationID: allocID,
		ActivityTitle:      "Training",
		Status:             status,
		TotalAmount:        dec(amount),
	}
	require.NoError(t, db.Create(&ad).Error)
	require.NoError(t, db.Create(&ds.ActivityAllocation{
		ActivityRequestID: ad.ID,
		LineItemID:        liID,
		Quarter:           q,
		Amount:            dec(amount),
	}).Error)
	return &ad
}

func TestQuarterConsumptionAndReservation(t *testing.T) {
	db := newTestDB(t)
	li := seedLineItem(t, db, 1, 10000, 5000, 0, 0)

	seedPurchase(t, db, 1, ds.StatusApproved, li.ID, ds.Q1, 4000)
	seedActivity(t, db, 1, ds.StatusPending, li.ID, ds.Q1, 3000)
	seedPurchase(t, db, 1, ds.StatusRejected, li.ID, ds.Q1, 9999)
	seedPurchase(t, db, 1, ds.StatusDraft, li.ID, ds.Q1, 8888)

	consumed, err := ledger.QuarterConsumed(db, li.ID, ds.Q1)
	require.NoError(t, err)
	assert.True(t, consumed.Equal(dec(4000)), consumed.String())

	reserved, err := ledger.QuarterReserved(db, li.ID, ds.Q1)
	require.NoError(t, err)
	assert.True(t, reserved.Equal(dec(3000)), reserved.String())

	available, err := ledger.AvailableForCommit(db, li.ID, ds.Q1, uuid.Nil)
	require.NoError(t, err)
	assert.True(t, available.Equal(dec(3000)), available.String())

	// drafts and rejections never hold funds
	q2, err := ledger.AvailableForCommit(db, li.ID, ds.Q2, uuid.Nil)
	require.NoError(t, err)
	assert.True(t, q2.Equal(dec(5000)))
}

func TestPendingRealignmentOutSelfExclusion(t *testing.T) {
	db := newTestDB(t)
	src := seedLineItem(t, db, 1, 10000, 0, 0, 0)
	dst := seedLineItem(t, db, 1, 2000, 0, 0, 0)

	re := ds.Realignment{
		ID:               uuid.New(),
		Status:           ds.StatusPending,
		SourcePlanID:     src.PlanID,
		SourceLineItemID: src.ID,
		TargetPlanID:     dst.PlanID,
		TargetLineItemID: dst.ID,
		Q1Amount:         dec(1000),
	}
	require.NoError(t, db.Create(&re).Error)

	out, err := ledger.PendingRealignmentOut(db, src.ID, ds.Q1, uuid.Nil)
	require.NoError(t, err)
	assert.True(t, out.Equal(dec(1000)), out.String())

	// the realignment being finalized does not count against itself
	out, err = ledger.PendingRealignmentOut(db, src.ID, ds.Q1, re.ID)
	require.NoError(t, err)
	assert.True(t, out.IsZero(), out.String())

	available, err := ledger.AvailableForCommit(db, src.ID, ds.Q1, uuid.Nil)
	require.NoError(t, err)
	assert.True(t, available.Equal(dec(9000)), available.String())

	available, err = ledger.AvailableForCommit(db, src.ID, ds.Q1, re.ID)
	require.NoError(t, err)
	assert.True(t, available.Equal(dec(10000)), available.String())
}

func TestQuarterBreakdown(t *testing.T) {
	db := newTestDB(t)
	li := seedLineItem(t, db, 1, 10000, 0, 0, 0)

	seedPurchase(t, db, 1, ds.StatusApproved, li.ID, ds.Q1, 4000)
	seedPurchase(t, db, 1, ds.StatusPending, li.ID, ds.Q1, 1500)
	seedActivity(t, db, 1, ds.StatusApproved, li.ID, ds.Q1, 500)
	seedActivity(t, db, 1, ds.StatusAwaitingVerification, li.ID, ds.Q1, 1000)

	f, err := ledger.QuarterBreakdown(db, li, ds.Q1)
	require.NoError(t, err)

	assert.True(t, f.Budgeted.Equal(dec(10000)))
	assert.True(t, f.PRConsumed.Equal(dec(4000)))
	assert.True(t, f.ADConsumed.Equal(dec(500)))
	assert.True(t, f.Consumed.Equal(dec(4500)))
	assert.True(t, f.PRReserved.Equal(dec(1500)))
	assert.True(t, f.ADReserved.Equal(dec(1000)))
	assert.True(t, f.Reserved.Equal(dec(2500)))
	assert.True(t, f.Available.Equal(dec(3000)), f.Available.String())
	assert.True(t, f.UtilizationPct.Equal(dec(45)), f.UtilizationPct.String())
	assert.Equal(t, int64(2), f.PRCount)
	assert.Equal(t, int64(2), f.ADCount)

	// the ledger never over-commits a quarter
	assert.True(t, f.Consumed.Add(f.Reserved).LessThanOrEqual(f.Budgeted))
}

func TestBreakdownAvailableClampedAtZero(t *testing.T) {
	db := newTestDB(t)
	li := seedLineItem(t, db, 1, 1000, 0, 0, 0)
	seedPurchase(t, db, 1, ds.StatusApproved, li.ID, ds.Q1, 1000)

	re := ds.Realignment{
		ID:               uuid.New(),
		Status:           ds.StatusPending,
		SourcePlanID:     li.PlanID,
		SourceLineItemID: li.ID,
		TargetPlanID:     li.PlanID,
		TargetLineItemID: li.ID + 1,
		Q1Amount:         dec(500),
	}
	require.NoError(t, db.Create(&re).Error)

	f, err := ledger.QuarterBreakdown(db, li, ds.Q1)
	require.NoError(t, err)
	assert.True(t, f.Available.IsZero(), f.Available.String())

	// the raw gate value still goes negative
	raw, err := ledger.AvailableForCommit(db, li.ID, ds.Q1, uuid.Nil)
	require.NoError(t, err)
	assert.True(t, raw.Equal(dec(-500)), raw.String())
}

func TestAvailablePlanBudgetDualSource(t *testing.T) {
	db := newTestDB(t)

	budget := ds.ApprovedBudget{Title: "GAA 2026", FiscalYear: "2026", Amount: dec(100000), RemainingBudget: dec(100000)}
	require.NoError(t, db.Create(&budget).Error)
	alloc := ds.BudgetAllocation{
		ApprovedBudgetID: budget.ID,
		Department:       "Finance",
		EndUserID:        7,
		AllocatedAmount:  dec(50000),
		RemainingBalance: dec(50000),
	}
	require.NoError(t, db.Create(&alloc).Error)

	// no approved plan yet: the allocation remaining governs
	available, err := ledger.AvailablePlanBudget(db, alloc.ID)
	require.NoError(t, err)
	assert.True(t, available.Equal(dec(50000)), available.String())

	li := seedLineItem(t, db, alloc.ID, 10000, 5000, 0, 0)
	seedPurchase(t, db, alloc.ID, ds.StatusApproved, li.ID, ds.Q1, 4000)
	require.NoError(t, db.Model(&alloc).Updates(map[string]interface{}{
		"pr_used":           dec(4000),
		"remaining_balance": dec(46000),
	}).Error)

	// approved plan present: plan total minus consuming usage governs
	available, err = ledger.AvailablePlanBudget(db, alloc.ID)
	require.NoError(t, err)
	assert.True(t, available.Equal(dec(11000)), available.String())
}

func TestPlanRemaining(t *testing.T) {
	db := newTestDB(t)
	li := seedLineItem(t, db, 1, 10000, 5000, 0, 0)

	seedPurchase(t, db, 1, ds.StatusApproved, li.ID, ds.Q1, 4000)
	seedActivity(t, db, 1, ds.StatusPending, li.ID, ds.Q2, 3000)

	consumed, err := ledger.PlanConsumed(db, li.PlanID)
	require.NoError(t, err)
	assert.True(t, consumed.Equal(dec(7000)), consumed.String())

	remaining, err := ledger.PlanRemaining(db, li.PlanID)
	require.NoError(t, err)
	assert.True(t, remaining.Equal(dec(8000)), remaining.String())
}

func TestUnknownRecordsReturnNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := ledger.AvailableForCommit(db, 999, ds.Q1, uuid.Nil)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	_, err = ledger.AvailablePlanBudget(db, 999)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	_, err = ledger.PlanRemaining(db, uuid.New())
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}
