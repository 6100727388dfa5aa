package workflow

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"budget-backend/internal/app/ds"
	"budget-backend/internal/app/repository"
)

// Lock acquisition runs in ascending ID order no matter which direction
// the transfer goes, so two finalizations touching the same item pair
// cannot deadlock. The pair must still come back in the requested
// source/target order.
func TestLockItemPairReturnsRequestedOrder(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	_, err = repository.NewWithDB(db)
	require.NoError(t, err)

	plan := ds.ExpenditurePlan{ID: uuid.New(), BudgetAllocationID: 1, FiscalYear: "2026", Status: ds.StatusApproved}
	require.NoError(t, db.Create(&plan).Error)
	low := ds.LineItem{PlanID: plan.ID, Category: "MOOE", ItemName: "Supplies"}
	require.NoError(t, db.Create(&low).Error)
	high := ds.LineItem{PlanID: plan.ID, Category: "MOOE", ItemName: "Travel"}
	require.NoError(t, db.Create(&high).Error)
	require.Less(t, low.ID, high.ID)

	err = db.Transaction(func(tx *gorm.DB) error {
		src, dst, err := lockItemPair(tx, high.ID, low.ID)
		require.NoError(t, err)
		assert.Equal(t, high.ID, src.ID)
		assert.Equal(t, low.ID, dst.ID)
		return nil
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		src, dst, err := lockItemPair(tx, low.ID, high.ID)
		require.NoError(t, err)
		assert.Equal(t, low.ID, src.ID)
		assert.Equal(t, high.ID, dst.ID)
		return nil
	})
	require.NoError(t, err)
}
