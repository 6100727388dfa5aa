package ds

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types recorded in the audit trail.
const (
	TxAllocationCreated   = "ALLOCATION_CREATED"
	TxAllocationModified  = "ALLOCATION_MODIFIED"
	TxPlanApproved        = "PRE_APPROVED"
	TxPurchaseApproved    = "PR_APPROVED"
	TxActivityApproved    = "AD_APPROVED"
	TxRealignmentApproved = "REALIGNMENT_APPROVED"
)

// BudgetTransaction is one row of the financial audit trail, with balance
// snapshots taken inside the same transaction as the change it records.
type BudgetTransaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	AllocationID    uint            `gorm:"not null;index" json:"allocation_id"`
	TransactionType string          `gorm:"type:varchar(30);not null" json:"transaction_type"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,6);not null" json:"amount"`
	PreviousBalance decimal.Decimal `gorm:"type:decimal(15,6);not null" json:"previous_balance"`
	NewBalance      decimal.Decimal `gorm:"type:decimal(15,6);not null" json:"new_balance"`
	DocumentType    DocumentType    `gorm:"type:varchar(20)" json:"document_type,omitempty"`
	DocumentID      string          `gorm:"type:varchar(100)" json:"document_id,omitempty"`
	Remarks         string          `gorm:"type:text" json:"remarks,omitempty"`
	CreatedByID     *uint           `gorm:"default:null" json:"created_by_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`

	Allocation BudgetAllocation `gorm:"foreignKey:AllocationID" json:"-"`
}

// SupportingDocument stores metadata for an uploaded file attached to a
// workflow document. The file body lives in object storage.
type SupportingDocument struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	DocumentType DocumentType `gorm:"type:varchar(20);not null;index:idx_doc_ref" json:"document_type"`
	DocumentID   string       `gorm:"type:varchar(100);not null;index:idx_doc_ref" json:"document_id"`
	FileName     string       `gorm:"type:varchar(255);not null" json:"file_name"`
	ObjectKey    string       `gorm:"type:varchar(255);not null" json:"object_key"`
	FileSize     int64        `gorm:"not null" json:"file_size"`
	IsSignedCopy bool         `gorm:"default:false" json:"is_signed_copy"`
	UploadedByID *uint        `gorm:"default:null" json:"uploaded_by_id,omitempty"`
	UploadedAt   time.Time    `gorm:"autoCreateTime" json:"uploaded_at"`
	Description  string       `gorm:"type:varchar(500)" json:"description,omitempty"`
}
