package workflow

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"budget-backend/internal/app/ds"
	"budget-backend/internal/app/ledger"
	"budget-backend/internal/app/repository"
)

// DocumentRef names one workflow document without loading it.
type DocumentRef struct {
	Type ds.DocumentType
	ID   uuid.UUID
}

// docOps binds one document kind to its loader and table. The service
// dispatches through this table instead of switching on concrete types.
type docOps struct {
	load  func(tx *gorm.DB, id uuid.UUID, lock bool) (ds.Document, error)
	model func() interface{}
}

var registry = map[ds.DocumentType]docOps{
	ds.DocTypePlan: {
		load: func(tx *gorm.DB, id uuid.UUID, lock bool) (ds.Document, error) {
			var p ds.ExpenditurePlan
			if err := scope(tx, lock).First(&p, "id = ?", id).Error; err != nil {
				return nil, err
			}
			return &p, nil
		},
		model: func() interface{} { return &ds.ExpenditurePlan{} },
	},
	ds.DocTypePurchase: {
		load: func(tx *gorm.DB, id uuid.UUID, lock bool) (ds.Document, error) {
			var p ds.PurchaseRequest
			if err := scope(tx, lock).Preload("Allocations").First(&p, "id = ?", id).Error; err != nil {
				return nil, err
			}
			return &p, nil
		},
		model: func() interface{} { return &ds.PurchaseRequest{} },
	},
	ds.DocTypeActivity: {
		load: func(tx *gorm.DB, id uuid.UUID, lock bool) (ds.Document, error) {
			var a ds.ActivityRequest
			if err := scope(tx, lock).Preload("Allocations").First(&a, "id = ?", id).Error; err != nil {
				return nil, err
			}
			return &a, nil
		},
		model: func() interface{} { return &ds.ActivityRequest{} },
	},
	ds.DocTypeRealignment: {
		load: func(tx *gorm.DB, id uuid.UUID, lock bool) (ds.Document, error) {
			var r ds.Realignment
			if err := scope(tx, lock).First(&r, "id = ?", id).Error; err != nil {
				return nil, err
			}
			return &r, nil
		},
		model: func() interface{} { return &ds.Realignment{} },
	},
}

func scope(tx *gorm.DB, lock bool) *gorm.DB {
	tx = tx.Where("is_archived = ?", false)
	if lock {
		return lockForUpdate(tx)
	}
	return tx
}

func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"})
	}
	return tx
}

var errStatusChanged = errors.New("document status changed concurrently")

// guardedUpdate writes vals only if the row still has the expected
// status. A zero row count means someone else moved the document first.
func guardedUpdate(tx *gorm.DB, ops docOps, id uuid.UUID, from ds.Status, vals map[string]interface{}) error {
	res := tx.Model(ops.model()).Where("id = ? AND status = ?", id, from).Updates(vals)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &ledger.ConcurrentModificationError{Operation: "status update", Err: errStatusChanged}
	}
	return nil
}

// Service drives the shared approval workflow across all four document
// kinds. Every transition runs in one database transaction; events go
// out only after commit.
type Service struct {
	repo     *repository.Repository
	db       *gorm.DB
	log      *logrus.Logger
	notifier Notifier
}

func NewService(repo *repository.Repository, log *logrus.Logger, notifier Notifier) *Service {
	if notifier == nil {
		notifier = &LogNotifier{Log: log}
	}
	return &Service{
		repo:     repo,
		db:       repo.DB(),
		log:      log,
		notifier: notifier,
	}
}

func (s *Service) transition(ref DocumentRef, action Action, actorID *uint,
	extra map[string]interface{},
	validate func(tx *gorm.DB, doc ds.Document) error,
) error {
	ops, ok := registry[ref.Type]
	if !ok {
		return &ledger.ValidationError{Field: "doc_type", Message: "unknown document type"}
	}

	var ev Event
	err := s.db.Transaction(func(tx *gorm.DB) error {
		doc, err := ops.load(tx, ref.ID, true)
		if err != nil {
			return err
		}
		from := doc.CurrentStatus()
		next, ok := Next(action, from)
		if !ok {
			return &ledger.InvalidStateTransitionError{
				DocType: ref.Type, DocID: ref.ID.String(),
				From: from, Action: string(action),
			}
		}
		if validate != nil {
			if err := validate(tx, doc); err != nil {
				return err
			}
		}

		vals := map[string]interface{}{"status": next}
		for k, v := range extra {
			vals[k] = v
		}
		if err := guardedUpdate(tx, ops, ref.ID, from, vals); err != nil {
			return err
		}

		ev = Event{
			Timestamp: time.Now(),
			DocType:   ref.Type,
			DocID:     ref.ID.String(),
			Action:    action,
			From:      from,
			To:        next,
			ActorID:   actorID,
		}
		return nil
	})
	if err != nil {
		return ledger.WrapDBError(string(action), err)
	}
	s.notifier.Notify(ev)
	return nil
}

// Submit moves a draft into the approval queue. Funds become reserved
// from this point, so availability is validated here.
func (s *Service) Submit(ref DocumentRef, actorID *uint) error {
	now := time.Now()
	return s.transition(ref, ActionSubmit, actorID,
		map[string]interface{}{"submitted_at": &now},
		s.validateSubmit)
}

// PartiallyApprove records the first-level approval.
func (s *Service) PartiallyApprove(ref DocumentRef, actorID *uint, notes string) error {
	now := time.Now()
	return s.transition(ref, ActionPartiallyApprove, actorID, map[string]interface{}{
		"partially_approved_at": &now,
		"admin_notes":           notes,
	}, nil)
}

// Reject kills a pending document and releases its reservation.
func (s *Service) Reject(ref DocumentRef, actorID *uint, reason string) error {
	return s.transition(ref, ActionReject, actorID, map[string]interface{}{
		"rejection_reason": reason,
	}, nil)
}

// UploadSigned records the signed hard copy and queues the document for
// final verification.
func (s *Service) UploadSigned(ref DocumentRef, actorID *uint) error {
	now := time.Now()
	return s.transition(ref, ActionUploadSigned, actorID, map[string]interface{}{
		"end_user_uploaded_at":  &now,
		"awaiting_verification": true,
	}, nil)
}

// VerifyReject sends the document back for a corrected upload. The
// reservation stays in place.
func (s *Service) VerifyReject(ref DocumentRef, actorID *uint, reason string) error {
	return s.transition(ref, ActionVerifyReject, actorID, map[string]interface{}{
		"awaiting_verification": false,
		"rejection_reason":      reason,
	}, nil)
}

func (s *Service) validateSubmit(tx *gorm.DB, doc ds.Document) error {
	if !doc.Amount().IsPositive() {
		return &ledger.ValidationError{Field: "total_amount", Message: "must be positive"}
	}
	switch d := doc.(type) {
	case *ds.ExpenditurePlan:
		available, err := ledger.AvailablePlanBudget(tx, d.BudgetAllocationID)
		if err != nil {
			return err
		}
		if d.TotalAmount.GreaterThan(available) {
			return &ledger.InsufficientFundsError{
				AllocationID: d.BudgetAllocationID,
				Shortfalls: []ledger.QuarterShortfall{
					{Available: available, Requested: d.TotalAmount},
				},
			}
		}
		return nil
	case *ds.PurchaseRequest:
		shares := make([]ds.QuarterShare, 0, len(d.Allocations))
		for _, a := range d.Allocations {
			shares = append(shares, ds.QuarterShare{LineItemID: a.LineItemID, Quarter: a.Quarter, Amount: a.Amount})
		}
		return checkShareAvailability(tx, shares)
	case *ds.ActivityRequest:
		shares := make([]ds.QuarterShare, 0, len(d.Allocations))
		for _, a := range d.Allocations {
			shares = append(shares, ds.QuarterShare{LineItemID: a.LineItemID, Quarter: a.Quarter, Amount: a.Amount})
		}
		return checkShareAvailability(tx, shares)
	case *ds.Realignment:
		return checkRealignmentAvailability(tx, d)
	}
	return nil
}

// checkShareAvailability validates every (line item, quarter) demand
// against what is still free. All quarters of a failing line item are
// reported together.
func checkShareAvailability(tx *gorm.DB, shares []ds.QuarterShare) error {
	demand := map[uint]map[ds.Quarter]decimal.Decimal{}
	var order []uint
	for _, s := range shares {
		if demand[s.LineItemID] == nil {
			demand[s.LineItemID] = map[ds.Quarter]decimal.Decimal{}
			order = append(order, s.LineItemID)
		}
		demand[s.LineItemID][s.Quarter] = demand[s.LineItemID][s.Quarter].Add(s.Amount)
	}

	for _, liID := range order {
		var shortfalls []ledger.QuarterShortfall
		for _, q := range ds.Quarters {
			requested, ok := demand[liID][q]
			if !ok {
				continue
			}
			available, err := ledger.AvailableForCommit(tx, liID, q, uuid.Nil)
			if err != nil {
				return err
			}
			if requested.GreaterThan(available) {
				shortfalls = append(shortfalls, ledger.QuarterShortfall{
					Quarter: q, Available: available, Requested: requested,
				})
			}
		}
		if len(shortfalls) > 0 {
			return &ledger.InsufficientFundsError{LineItemID: liID, Shortfalls: shortfalls}
		}
	}
	return nil
}

func checkRealignmentAvailability(tx *gorm.DB, re *ds.Realignment) error {
	var src ds.LineItem
	if err := tx.First(&src, re.SourceLineItemID).Error; err != nil {
		return err
	}
	var shortfalls []ledger.QuarterShortfall
	for _, q := range re.SelectedQuarters() {
		available, err := ledger.AvailableForItem(tx, &src, q, re.ID)
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
		return &ledger.InsufficientFundsError{LineItemID: re.SourceLineItemID, Shortfalls: shortfalls}
	}
	return nil
}

// VerifyApprove finally approves a document. For consuming documents
// the reservation converts to consumption: usage counters move inside
// the same transaction as the status flip, with an audit row. A second
// call finds the document already Approved and fails the status guard,
// so counters can never move twice.
func (s *Service) VerifyApprove(ref DocumentRef, actorID *uint) error {
	if ref.Type == ds.DocTypeRealignment {
		return s.FinalizeRealignment(ref.ID, actorID)
	}
	ops, ok := registry[ref.Type]
	if !ok {
		return &ledger.ValidationError{Field: "doc_type", Message: "unknown document type"}
	}

	var ev Event
	err := s.db.Transaction(func(tx *gorm.DB) error {
		doc, err := ops.load(tx, ref.ID, true)
		if err != nil {
			return err
		}
		from := doc.CurrentStatus()
		next, ok := Next(ActionVerifyApprove, from)
		if !ok {
			return &ledger.InvalidStateTransitionError{
				DocType: ref.Type, DocID: ref.ID.String(),
				From: from, Action: string(ActionVerifyApprove),
			}
		}

		var alloc ds.BudgetAllocation
		if err := lockForUpdate(tx).First(&alloc, doc.OwningAllocationID()).Error; err != nil {
			return err
		}

		now := time.Now()
		err = guardedUpdate(tx, ops, ref.ID, from, map[string]interface{}{
			"status":                next,
			"final_approved_at":     &now,
			"approved_by_id":        actorID,
			"awaiting_verification": false,
		})
		if err != nil {
			return err
		}
		if err := applyConsumption(tx, &alloc, doc, actorID); err != nil {
			return err
		}

		ev = Event{
			Timestamp: now,
			DocType:   ref.Type,
			DocID:     ref.ID.String(),
			Action:    ActionVerifyApprove,
			From:      from,
			To:        next,
			Delta:     doc.Amount(),
			ActorID:   actorID,
		}
		return nil
	})
	if err != nil {
		return ledger.WrapDBError(string(ActionVerifyApprove), err)
	}
	s.notifier.Notify(ev)
	return nil
}

// applyConsumption moves the allocation counters for a finally
// approved document. Plan approval only sets the informational
// plan_used figure; purchase and activity approval consume the
// remaining balance.
func applyConsumption(tx *gorm.DB, alloc *ds.BudgetAllocation, doc ds.Document, actorID *uint) error {
	amount := doc.Amount()
	prev := alloc.RemainingBalance

	var txType string
	updates := map[string]interface{}{}
	newBalance := prev

	switch doc.DocumentType() {
	case ds.DocTypePlan:
		txType = ds.TxPlanApproved
		updates["plan_used"] = amount
	case ds.DocTypePurchase:
		txType = ds.TxPurchaseApproved
		newBalance = prev.Sub(amount)
		updates["pr_used"] = alloc.PRUsed.Add(amount)
		updates["remaining_balance"] = newBalance
	case ds.DocTypeActivity:
		txType = ds.TxActivityApproved
		newBalance = prev.Sub(amount)
		updates["ad_used"] = alloc.ADUsed.Add(amount)
		updates["remaining_balance"] = newBalance
	default:
		return &ledger.ValidationError{Field: "doc_type", Message: "unknown consuming document type"}
	}

	if err := tx.Model(alloc).Updates(updates).Error; err != nil {
		return err
	}
	return tx.Create(&ds.BudgetTransaction{
		AllocationID:    alloc.ID,
		TransactionType: txType,
		Amount:          amount,
		PreviousBalance: prev,
		NewBalance:      newBalance,
		DocumentType:    doc.DocumentType(),
		DocumentID:      doc.DocumentID(),
		CreatedByID:     actorID,
	}).Error
}
