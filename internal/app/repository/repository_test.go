package repository_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"budget-backend/internal/app/ds"
	"budget-backend/internal/app/ledger"
	"budget-backend/internal/app/repository"
)

func newTestRepo(t *testing.T) *repository.Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	repo, err := repository.NewWithDB(db)
	require.NoError(t, err)
	return repo
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func uintPtr(v uint) *uint { return &v }

func seedBudget(t *testing.T, repo *repository.Repository, fiscalYear string, amount int64) *ds.ApprovedBudget {
	t.Helper()
	b := ds.ApprovedBudget{Title: "GAA " + fiscalYear, FiscalYear: fiscalYear, Amount: dec(amount)}
	require.NoError(t, repo.CreateApprovedBudget(&b))
	return &b
}

func seedAllocation(t *testing.T, repo *repository.Repository, budgetID uint, endUser uint, amount int64) *ds.BudgetAllocation {
	t.Helper()
	a := ds.BudgetAllocation{
		ApprovedBudgetID: budgetID,
		Department:       "Finance",
		EndUserID:        endUser,
		AllocatedAmount:  dec(amount),
	}
	require.NoError(t, repo.CreateAllocation(&a, uintPtr(1)))
	return &a
}

func TestCreateBudgetInitializesRemaining(t *testing.T) {
	repo := newTestRepo(t)
	b := seedBudget(t, repo, "2026", 100000)
	assert.True(t, b.RemainingBudget.Equal(dec(100000)))

	var ve *ledger.ValidationError
	err := repo.CreateApprovedBudget(&ds.ApprovedBudget{Title: "bad", FiscalYear: "2027", Amount: dec(-5)})
	require.ErrorAs(t, err, &ve)
}

func TestAllocationDrawsDownBudget(t *testing.T) {
	repo := newTestRepo(t)
	b := seedBudget(t, repo, "2026", 100000)

	a := seedAllocation(t, repo, b.ID, 7, 60000)
	assert.True(t, a.RemainingBalance.Equal(dec(60000)))

	got, err := repo.GetApprovedBudget(b.ID, false)
	require.NoError(t, err)
	assert.True(t, got.RemainingBudget.Equal(dec(40000)), got.RemainingBudget.String())

	// over-allocation of the remainder is refused
	var ve *ledger.ValidationError
	err = repo.CreateAllocation(&ds.BudgetAllocation{
		ApprovedBudgetID: b.ID, Department: "HR", EndUserID: 8, AllocatedAmount: dec(50000),
	}, uintPtr(1))
	require.ErrorAs(t, err, &ve)

	txs, err := repo.ListTransactions(a.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, ds.TxAllocationCreated, txs[0].TransactionType)
	assert.True(t, txs[0].Amount.Equal(dec(60000)))
}

func TestUpdateAllocationRespectsUsageFloor(t *testing.T) {
	repo := newTestRepo(t)
	b := seedBudget(t, repo, "2026", 100000)
	a := seedAllocation(t, repo, b.ID, 7, 60000)

	require.NoError(t, repo.DB().Model(&ds.BudgetAllocation{}).Where("id = ?", a.ID).
		Updates(map[string]interface{}{"pr_used": dec(20000), "remaining_balance": dec(40000)}).Error)

	var ve *ledger.ValidationError
	err := repo.UpdateAllocationAmount(a.ID, dec(15000), uintPtr(1))
	require.ErrorAs(t, err, &ve)

	require.NoError(t, repo.UpdateAllocationAmount(a.ID, dec(30000), uintPtr(1)))

	got, err := repo.GetAllocation(a.ID, false)
	require.NoError(t, err)
	assert.True(t, got.AllocatedAmount.Equal(dec(30000)))
	assert.True(t, got.RemainingBalance.Equal(dec(10000)), got.RemainingBalance.String())

	// the freed 30000 returned to the budget pool
	budget, err := repo.GetApprovedBudget(b.ID, false)
	require.NoError(t, err)
	assert.True(t, budget.RemainingBudget.Equal(dec(70000)), budget.RemainingBudget.String())
}

func TestPlanTotalDerivedFromItems(t *testing.T) {
	repo := newTestRepo(t)
	b := seedBudget(t, repo, "2026", 100000)
	a := seedAllocation(t, repo, b.ID, 7, 60000)

	plan := ds.ExpenditurePlan{BudgetAllocationID: a.ID, FiscalYear: "2026", TotalAmount: dec(999999)}
	items := []ds.LineItem{
		{Category: "MOOE", ItemName: "Supplies", Q1Amount: dec(1000), Q3Amount: dec(500)},
		{Category: "CO", ItemName: "Equipment", Q2Amount: dec(2000)},
	}
	require.NoError(t, repo.CreatePlan(&plan, items))
	assert.True(t, plan.TotalAmount.Equal(dec(3500)), plan.TotalAmount.String())

	var ve *ledger.ValidationError
	err := repo.CreatePlan(&ds.ExpenditurePlan{BudgetAllocationID: a.ID, FiscalYear: "2026"},
		[]ds.LineItem{{Category: "MOOE", ItemName: "Bad", Q1Amount: dec(-1)}})
	require.ErrorAs(t, err, &ve)

	// a plan with no items at all is refused
	err = repo.CreatePlan(&ds.ExpenditurePlan{BudgetAllocationID: a.ID, FiscalYear: "2026"}, nil)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "line_items", ve.Field)
}

func TestLineItemEditsOnlyInDraft(t *testing.T) {
	repo := newTestRepo(t)
	b := seedBudget(t, repo, "2026", 100000)
	a := seedAllocation(t, repo, b.ID, 7, 60000)

	plan := ds.ExpenditurePlan{BudgetAllocationID: a.ID, FiscalYear: "2026"}
	require.NoError(t, repo.CreatePlan(&plan, []ds.LineItem{
		{Category: "MOOE", ItemName: "Supplies", Q1Amount: dec(1000)},
	}))

	items, err := repo.LineItems(plan.ID)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateLineItemAmounts(items[0].ID, map[ds.Quarter]decimal.Decimal{ds.Q2: dec(700)}))

	got, err := repo.GetPlan(plan.ID, false)
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.Equal(dec(1700)), got.TotalAmount.String())

	require.NoError(t, repo.DB().Model(&ds.ExpenditurePlan{}).Where("id = ?", plan.ID).
		Update("status", ds.StatusApproved).Error)

	var ist *ledger.InvalidStateTransitionError
	err = repo.UpdateLineItemAmounts(items[0].ID, map[ds.Quarter]decimal.Decimal{ds.Q1: dec(1)})
	require.ErrorAs(t, err, &ist)
	err = repo.AddLineItem(plan.ID, &ds.LineItem{Category: "MOOE", ItemName: "Late"})
	require.ErrorAs(t, err, &ist)
}

func TestDeleteLineItemBlockedByReferences(t *testing.T) {
	repo := newTestRepo(t)
	b := seedBudget(t, repo, "2026", 100000)
	a := seedAllocation(t, repo, b.ID, 7, 60000)

	plan := ds.ExpenditurePlan{BudgetAllocationID: a.ID, FiscalYear: "2026"}
	require.NoError(t, repo.CreatePlan(&plan, []ds.LineItem{
		{Category: "MOOE", ItemName: "Supplies", Q1Amount: dec(5000)},
	}))
	require.NoError(t, repo.DB().Model(&ds.ExpenditurePlan{}).Where("id = ?", plan.ID).
		Update("status", ds.StatusApproved).Error)

	items, err := repo.LineItems(plan.ID)
	require.NoError(t, err)
	li := items[0]

	pr := ds.PurchaseRequest{PRNumber: "PR-001", BudgetAllocationID: a.ID}
	require.NoError(t, repo.CreatePurchaseRequest(&pr,
		[]ds.QuarterShare{{LineItemID: li.ID, Quarter: ds.Q1, Amount: dec(1000)}}))
	require.NoError(t, repo.DB().Model(&ds.PurchaseRequest{}).Where("id = ?", pr.ID).
		Update("status", ds.StatusPending).Error)

	var rie *ledger.ReferentialIntegrityError
	err = repo.DeleteLineItem(li.ID)
	require.ErrorAs(t, err, &rie)
	assert.Equal(t, int64(1), rie.RefCount)

	// a rejected reference no longer blocks
	require.NoError(t, repo.DB().Model(&ds.PurchaseRequest{}).Where("id = ?", pr.ID).
		Update("status", ds.StatusRejected).Error)
	require.NoError(t, repo.DeleteLineItem(li.ID))
}

func TestRealignmentCreationValidation(t *testing.T) {
	repo := newTestRepo(t)
	b := seedBudget(t, repo, "2026", 100000)
	a := seedAllocation(t, repo, b.ID, 7, 60000)

	plan := ds.ExpenditurePlan{BudgetAllocationID: a.ID, FiscalYear: "2026"}
	require.NoError(t, repo.CreatePlan(&plan, []ds.LineItem{
		{Category: "MOOE", ItemName: "Supplies", Q1Amount: dec(5000)},
		{Category: "MOOE", ItemName: "Travel", Q1Amount: dec(1000)},
	}))
	items, err := repo.LineItems(plan.ID)
	require.NoError(t, err)

	var ve *ledger.ValidationError

	// all-zero transfer
	err = repo.CreateRealignment(&ds.Realignment{
		SourceLineItemID: items[0].ID, TargetLineItemID: items[1].ID,
	})
	require.ErrorAs(t, err, &ve)

	// negative quarter
	err = repo.CreateRealignment(&ds.Realignment{
		SourceLineItemID: items[0].ID, TargetLineItemID: items[1].ID, Q1Amount: dec(-10),
	})
	require.ErrorAs(t, err, &ve)

	// self transfer
	err = repo.CreateRealignment(&ds.Realignment{
		SourceLineItemID: items[0].ID, TargetLineItemID: items[0].ID, Q1Amount: dec(10),
	})
	require.ErrorAs(t, err, &ve)

	// plans not approved yet
	err = repo.CreateRealignment(&ds.Realignment{
		SourceLineItemID: items[0].ID, TargetLineItemID: items[1].ID, Q1Amount: dec(10),
	})
	require.ErrorAs(t, err, &ve)

	require.NoError(t, repo.DB().Model(&ds.ExpenditurePlan{}).Where("id = ?", plan.ID).
		Update("status", ds.StatusApproved).Error)
	re := ds.Realignment{SourceLineItemID: items[0].ID, TargetLineItemID: items[1].ID, Q1Amount: dec(10)}
	require.NoError(t, repo.CreateRealignment(&re))
	assert.Equal(t, ds.StatusDraft, re.Status)
	assert.Equal(t, plan.ID, re.SourcePlanID)
}

func TestArchiveRestoreAsymmetry(t *testing.T) {
	repo := newTestRepo(t)
	b := seedBudget(t, repo, "2025", 100000)
	a := seedAllocation(t, repo, b.ID, 7, 60000)

	manual := ds.ExpenditurePlan{BudgetAllocationID: a.ID, FiscalYear: "2025"}
	require.NoError(t, repo.CreatePlan(&manual, []ds.LineItem{{Category: "MOOE", ItemName: "Hidden", Q1Amount: dec(1)}}))
	regular := ds.ExpenditurePlan{BudgetAllocationID: a.ID, FiscalYear: "2025"}
	require.NoError(t, repo.CreatePlan(&regular, []ds.LineItem{{Category: "MOOE", ItemName: "Visible", Q1Amount: dec(1)}}))

	// hidden by hand before the fiscal-year sweep
	require.NoError(t, repo.DB().Model(&ds.ExpenditurePlan{}).Where("id = ?", manual.ID).
		Updates(map[string]interface{}{"is_archived": true, "archive_type": ds.ArchiveManual}).Error)

	require.NoError(t, repo.ArchiveBudgetCascade(b.ID, ds.ArchiveFiscalYear, uintPtr(1), "year end"))

	_, err := repo.GetApprovedBudget(b.ID, false)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	_, err = repo.GetAllocation(a.ID, false)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	_, err = repo.GetPlan(regular.ID, false)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	require.NoError(t, repo.RestoreBudgetCascade(b.ID))

	// fiscal-year archives come back
	_, err = repo.GetApprovedBudget(b.ID, false)
	require.NoError(t, err)
	_, err = repo.GetAllocation(a.ID, false)
	require.NoError(t, err)
	_, err = repo.GetPlan(regular.ID, false)
	require.NoError(t, err)

	// the manual archive survives the restore
	_, err = repo.GetPlan(manual.ID, false)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	got, err := repo.GetPlan(manual.ID, true)
	require.NoError(t, err)
	assert.Equal(t, ds.ArchiveManual, got.ArchiveType)
}

func TestAllocationRestoreIsUnconditional(t *testing.T) {
	repo := newTestRepo(t)
	b := seedBudget(t, repo, "2026", 100000)
	a := seedAllocation(t, repo, b.ID, 7, 60000)

	plan := ds.ExpenditurePlan{BudgetAllocationID: a.ID, FiscalYear: "2026"}
	require.NoError(t, repo.CreatePlan(&plan, []ds.LineItem{{Category: "MOOE", ItemName: "Supplies", Q1Amount: dec(1)}}))
	require.NoError(t, repo.DB().Model(&ds.ExpenditurePlan{}).Where("id = ?", plan.ID).
		Updates(map[string]interface{}{"is_archived": true, "archive_type": ds.ArchiveManual}).Error)

	require.NoError(t, repo.ArchiveAllocationCascade(a.ID, ds.ArchiveManual, uintPtr(1), "cleanup"))
	require.NoError(t, repo.RestoreAllocationCascade(a.ID))

	// allocation-level restore brings back even manual archives
	_, err := repo.GetAllocation(a.ID, false)
	require.NoError(t, err)
	_, err = repo.GetPlan(plan.ID, false)
	require.NoError(t, err)
}

func TestArchivePastYears(t *testing.T) {
	repo := newTestRepo(t)
	old := seedBudget(t, repo, "2024", 50000)
	current := seedBudget(t, repo, "2026", 100000)

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	n, err := repo.ArchivePastYears(now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = repo.GetApprovedBudget(old.ID, false)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	archived, err := repo.GetApprovedBudget(old.ID, true)
	require.NoError(t, err)
	assert.Equal(t, ds.ArchiveFiscalYear, archived.ArchiveType)

	_, err = repo.GetApprovedBudget(current.ID, false)
	require.NoError(t, err)

	// the sweep is idempotent
	n, err = repo.ArchivePastYears(now)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUserRepository(t *testing.T) {
	repo := newTestRepo(t)
	u, err := repo.CreateUser("jdoe", "hash", "J. Doe", "Finance", false)
	require.NoError(t, err)

	got, err := repo.GetUserByLogin("jdoe")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.False(t, got.IsAdmin)

	_, err = repo.GetUserByID(999)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}
