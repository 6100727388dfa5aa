package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"budget-backend/internal/app/ds"
)

// ValidationError reports malformed input: negative amounts, empty
// transfers, unbalanced quarters.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// QuarterShortfall is one quarter where a requested amount exceeds what
// is available. Quarter is empty for aggregate shortfalls.
type QuarterShortfall struct {
	Quarter   ds.Quarter      `json:"quarter,omitempty"`
	Available decimal.Decimal `json:"available"`
	Requested decimal.Decimal `json:"requested"`
}

// InsufficientFundsError lists every failing quarter of an operation.
// The operation is all-or-nothing, so a single shortfall blocks it.
// LineItemID is set for per-quarter shortfalls, AllocationID for
// aggregate ceiling shortfalls.
type InsufficientFundsError struct {
	LineItemID   uint
	AllocationID uint
	Shortfalls   []QuarterShortfall
}

func (e *InsufficientFundsError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		prefix := ""
		if s.Quarter != "" {
			prefix = string(s.Quarter) + ": "
		}
		parts = append(parts, fmt.Sprintf("%srequested %s, available %s",
			prefix, s.Requested.StringFixed(2), s.Available.StringFixed(2)))
	}
	scope := fmt.Sprintf("line item %d", e.LineItemID)
	if e.LineItemID == 0 {
		scope = fmt.Sprintf("allocation %d", e.AllocationID)
	}
	return fmt.Sprintf("insufficient funds on %s (%s)", scope, strings.Join(parts, "; "))
}

// InvalidStateTransitionError reports an action applied to a document
// whose current status does not permit it.
type InvalidStateTransitionError struct {
	DocType ds.DocumentType
	DocID   string
	From    ds.Status
	Action  string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("%s %s: cannot %s from status %q",
		e.DocType, e.DocID, e.Action, e.From)
}

// ConcurrentModificationError wraps a database conflict (lock not
// acquired, serialization failure). Callers may retry the operation.
type ConcurrentModificationError struct {
	Operation string
	Err       error
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("concurrent modification during %s: %v", e.Operation, e.Err)
}

func (e *ConcurrentModificationError) Unwrap() error { return e.Err }

// ReferentialIntegrityError reports a delete blocked by live references.
type ReferentialIntegrityError struct {
	Entity   string
	ID       string
	RefCount int64
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("%s %s is referenced by %d active record(s)",
		e.Entity, e.ID, e.RefCount)
}

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")
