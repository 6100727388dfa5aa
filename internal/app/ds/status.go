package ds

import "github.com/shopspring/decimal"

// Quarter identifies one of the four fiscal quarters of a line item.
type Quarter string

const (
	Q1 Quarter = "Q1"
	Q2 Quarter = "Q2"
	Q3 Quarter = "Q3"
	Q4 Quarter = "Q4"
)

// Quarters lists all quarters in fiscal order.
var Quarters = []Quarter{Q1, Q2, Q3, Q4}

func (q Quarter) Valid() bool {
	switch q {
	case Q1, Q2, Q3, Q4:
		return true
	}
	return false
}

// Status is the shared workflow status for plans, purchase requests,
// activity requests and realignments.
type Status string

const (
	StatusDraft                Status = "Draft"
	StatusPending              Status = "Pending"
	StatusPartiallyApproved    Status = "Partially Approved"
	StatusAwaitingVerification Status = "Awaiting Admin Verification"
	StatusApproved             Status = "Approved"
	StatusRejected             Status = "Rejected"
)

// InFlight reports whether the status tentatively holds budget (reserved).
// Draft, Rejected and Approved documents are not in flight.
func (s Status) InFlight() bool {
	switch s {
	case StatusPending, StatusPartiallyApproved, StatusAwaitingVerification:
		return true
	}
	return false
}

// InFlightStatuses is the reserved set used in SQL filters.
var InFlightStatuses = []Status{StatusPending, StatusPartiallyApproved, StatusAwaitingVerification}

// ArchiveType distinguishes automatic fiscal-year archives from manual ones,
// so that restoring a fiscal year never resurrects manually hidden records.
type ArchiveType string

const (
	ArchiveFiscalYear ArchiveType = "FISCAL_YEAR"
	ArchiveManual     ArchiveType = "MANUAL"
)

// DocumentType tags the concrete kind of a workflow document.
type DocumentType string

const (
	DocTypePlan        DocumentType = "PRE"
	DocTypePurchase    DocumentType = "PR"
	DocTypeActivity    DocumentType = "AD"
	DocTypeRealignment DocumentType = "REALIGNMENT"
)

// Document is the shared view of the four workflow document kinds.
// The state machine and the calculator operate only against this
// abstraction, never against the concrete types.
type Document interface {
	DocumentID() string
	DocumentType() DocumentType
	CurrentStatus() Status
	Amount() decimal.Decimal
	// OwningAllocationID returns the BudgetAllocation whose counters the
	// document touches on final approval; zero for realignments, which
	// move funds between line items instead.
	OwningAllocationID() uint
}
