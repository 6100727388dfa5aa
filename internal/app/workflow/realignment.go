package workflow

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"budget-backend/internal/app/ds"
	"budget-backend/internal/app/ledger"
)

// FinalizeRealignment moves the funds of a verified realignment. Both
// line items are locked in ID order, every selected quarter is
// re-validated with the realignment excluded from its own pending
// deduction, and either all quarters move or none do.
func (s *Service) FinalizeRealignment(id uuid.UUID, actorID *uint) error {
	var ev Event
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var re ds.Realignment
		if err := scope(tx, true).First(&re, "id = ?", id).Error; err != nil {
			return err
		}
		from := re.Status
		next, ok := Next(ActionVerifyApprove, from)
		if !ok {
			return &ledger.InvalidStateTransitionError{
				DocType: ds.DocTypeRealignment, DocID: id.String(),
				From: from, Action: string(ActionVerifyApprove),
			}
		}

		src, dst, err := lockItemPair(tx, re.SourceLineItemID, re.TargetLineItemID)
		if err != nil {
			return err
		}

		var shortfalls []ledger.QuarterShortfall
		for _, q := range re.SelectedQuarters() {
			available, err := ledger.AvailableForItem(tx, src, q, re.ID)
			if err != nil {
				return err
			}
			if re.QuarterAmount(q).GreaterThan(available) {
				shortfalls = append(shortfalls, ledger.QuarterShortfall{
					Quarter: q, Available: available, Requested: re.QuarterAmount(q),
				})
			}
		}
		if len(shortfalls) > 0 {
			return &ledger.InsufficientFundsError{
				LineItemID: re.SourceLineItemID, Shortfalls: shortfalls,
			}
		}

		for _, q := range re.SelectedQuarters() {
			amt := re.QuarterAmount(q)
			src.SetQuarterAmount(q, src.QuarterAmount(q).Sub(amt))
			dst.SetQuarterAmount(q, dst.QuarterAmount(q).Add(amt))
		}
		for _, li := range []*ds.LineItem{src, dst} {
			err := tx.Model(&ds.LineItem{}).Where("id = ?", li.ID).Updates(map[string]interface{}{
				"q1_amount": li.Q1Amount,
				"q2_amount": li.Q2Amount,
				"q3_amount": li.Q3Amount,
				"q4_amount": li.Q4Amount,
			}).Error
			if err != nil {
				return err
			}
		}
		for _, planID := range []uuid.UUID{src.PlanID, dst.PlanID} {
			if err := refreshPlanTotal(tx, planID); err != nil {
				return err
			}
		}

		now := time.Now()
		err = guardedUpdate(tx, registry[ds.DocTypeRealignment], id, from, map[string]interface{}{
			"status":                next,
			"final_approved_at":     &now,
			"approved_by_id":        actorID,
			"awaiting_verification": false,
		})
		if err != nil {
			return err
		}
		if err := recordRealignmentAudit(tx, &re, src, dst, actorID); err != nil {
			return err
		}

		ev = Event{
			Timestamp: now,
			DocType:   ds.DocTypeRealignment,
			DocID:     id.String(),
			Action:    ActionVerifyApprove,
			From:      from,
			To:        next,
			Delta:     re.Amount(),
			ActorID:   actorID,
		}
		return nil
	})
	if err != nil {
		return ledger.WrapDBError("finalize realignment", err)
	}
	s.notifier.Notify(ev)
	return nil
}

// lockItemPair locks two line items in ascending ID order so competing
// finalizations cannot deadlock, then returns them in the asked order.
func lockItemPair(tx *gorm.DB, srcID, dstID uint) (*ds.LineItem, *ds.LineItem, error) {
	firstID, secondID := srcID, dstID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}
	var first, second ds.LineItem
	if err := lockForUpdate(tx).First(&first, firstID).Error; err != nil {
		return nil, nil, err
	}
	if err := lockForUpdate(tx).First(&second, secondID).Error; err != nil {
		return nil, nil, err
	}
	if first.ID == srcID {
		return &first, &second, nil
	}
	return &second, &first, nil
}

func refreshPlanTotal(tx *gorm.DB, planID uuid.UUID) error {
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

// recordRealignmentAudit writes one trail row per affected allocation.
// Balances do not move, funds shift between budgeted line items.
func recordRealignmentAudit(tx *gorm.DB, re *ds.Realignment, src, dst *ds.LineItem, actorID *uint) error {
	allocIDs := map[uint]bool{}
	for _, planID := range []uuid.UUID{src.PlanID, dst.PlanID} {
		var plan ds.ExpenditurePlan
		if err := tx.First(&plan, "id = ?", planID).Error; err != nil {
			return err
		}
		allocIDs[plan.BudgetAllocationID] = true
	}
	for allocID := range allocIDs {
		var alloc ds.BudgetAllocation
		if err := tx.First(&alloc, allocID).Error; err != nil {
			return err
		}
		err := tx.Create(&ds.BudgetTransaction{
			AllocationID:    allocID,
			TransactionType: ds.TxRealignmentApproved,
			Amount:          re.Amount(),
			PreviousBalance: alloc.RemainingBalance,
			NewBalance:      alloc.RemainingBalance,
			DocumentType:    ds.DocTypeRealignment,
			DocumentID:      re.ID.String(),
			CreatedByID:     actorID,
		}).Error
		if err != nil {
			return err
		}
	}
	return nil
}
