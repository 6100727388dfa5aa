package ds

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseRequest is a procurement request funded by line-item quarters
// of an approved plan.
type PurchaseRequest struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PRNumber           string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"pr_number"`
	BudgetAllocationID uint            `gorm:"not null;index" json:"budget_allocation_id"`
	SubmittedByID      *uint           `gorm:"default:null" json:"submitted_by_id,omitempty"`
	Department         string          `gorm:"type:varchar(255)" json:"department"`
	Purpose            string          `gorm:"type:text" json:"purpose"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(15,6);default:0" json:"total_amount"`
	Status             Status          `gorm:"type:varchar(30);default:'Draft'" json:"status"`

	SubmittedAt          *time.Time `gorm:"default:null" json:"submitted_at,omitempty"`
	PartiallyApprovedAt  *time.Time `gorm:"default:null" json:"partially_approved_at,omitempty"`
	FinalApprovedAt      *time.Time `gorm:"default:null" json:"final_approved_at,omitempty"`
	AwaitingVerification bool       `gorm:"default:false" json:"awaiting_verification"`
	EndUserUploadedAt    *time.Time `gorm:"default:null" json:"end_user_uploaded_at,omitempty"`
	ApprovedByID         *uint      `gorm:"default:null" json:"approved_by_id,omitempty"`
	AdminNotes           string     `gorm:"type:text" json:"admin_notes,omitempty"`
	RejectionReason      string     `gorm:"type:text" json:"rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ArchiveFields

	BudgetAllocation BudgetAllocation     `gorm:"foreignKey:BudgetAllocationID" json:"-"`
	Allocations      []PurchaseAllocation `gorm:"foreignKey:PurchaseRequestID" json:"allocations,omitempty"`
}

func (p *PurchaseRequest) DocumentID() string         { return p.ID.String() }
func (p *PurchaseRequest) DocumentType() DocumentType { return DocTypePurchase }
func (p *PurchaseRequest) CurrentStatus() Status      { return p.Status }
func (p *PurchaseRequest) Amount() decimal.Decimal    { return p.TotalAmount }
func (p *PurchaseRequest) OwningAllocationID() uint   { return p.BudgetAllocationID }

// ActivityRequest is a non-procurement activity request. Same workflow
// and consumption rules as a PurchaseRequest, tracked on its own counter.
type ActivityRequest struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ADNumber           string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"ad_number"`
	BudgetAllocationID uint            `gorm:"not null;index" json:"budget_allocation_id"`
	SubmittedByID      *uint           `gorm:"default:null" json:"submitted_by_id,omitempty"`
	Department         string          `gorm:"type:varchar(255)" json:"department"`
	ActivityTitle      string          `gorm:"type:varchar(255)" json:"activity_title"`
	Purpose            string          `gorm:"type:text" json:"purpose,omitempty"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(15,6);default:0" json:"total_amount"`
	Status             Status          `gorm:"type:varchar(30);default:'Draft'" json:"status"`

	SubmittedAt          *time.Time `gorm:"default:null" json:"submitted_at,omitempty"`
	PartiallyApprovedAt  *time.Time `gorm:"default:null" json:"partially_approved_at,omitempty"`
	FinalApprovedAt      *time.Time `gorm:"default:null" json:"final_approved_at,omitempty"`
	AwaitingVerification bool       `gorm:"default:false" json:"awaiting_verification"`
	EndUserUploadedAt    *time.Time `gorm:"default:null" json:"end_user_uploaded_at,omitempty"`
	ApprovedByID         *uint      `gorm:"default:null" json:"approved_by_id,omitempty"`
	AdminNotes           string     `gorm:"type:text" json:"admin_notes,omitempty"`
	RejectionReason      string     `gorm:"type:text" json:"rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ArchiveFields

	BudgetAllocation BudgetAllocation     `gorm:"foreignKey:BudgetAllocationID" json:"-"`
	Allocations      []ActivityAllocation `gorm:"foreignKey:ActivityRequestID" json:"allocations,omitempty"`
}

func (a *ActivityRequest) DocumentID() string         { return a.ID.String() }
func (a *ActivityRequest) DocumentType() DocumentType { return DocTypeActivity }
func (a *ActivityRequest) CurrentStatus() Status      { return a.Status }
func (a *ActivityRequest) Amount() decimal.Decimal    { return a.TotalAmount }
func (a *ActivityRequest) OwningAllocationID() uint   { return a.BudgetAllocationID }

// PurchaseAllocation links a PurchaseRequest to one line item and one
// quarter with an allocated amount. Line items referenced here may not
// be deleted.
type PurchaseAllocation struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	PurchaseRequestID uuid.UUID       `gorm:"type:uuid;not null;index:idx_pr_alloc" json:"purchase_request_id"`
	LineItemID        uint            `gorm:"not null;index:idx_pr_alloc;index" json:"line_item_id"`
	Quarter           Quarter         `gorm:"type:varchar(2);not null" json:"quarter"`
	Amount            decimal.Decimal `gorm:"type:decimal(15,6);default:0" json:"amount"`
	Notes             string          `gorm:"type:text" json:"notes,omitempty"`
	AllocatedAt       time.Time       `gorm:"autoCreateTime" json:"allocated_at"`

	LineItem LineItem `gorm:"foreignKey:LineItemID" json:"-"`
}

// ActivityAllocation is the ActivityRequest counterpart of
// PurchaseAllocation.
type ActivityAllocation struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	ActivityRequestID uuid.UUID       `gorm:"type:uuid;not null;index:idx_ad_alloc" json:"activity_request_id"`
	LineItemID        uint            `gorm:"not null;index:idx_ad_alloc;index" json:"line_item_id"`
	Quarter           Quarter         `gorm:"type:varchar(2);not null" json:"quarter"`
	Amount            decimal.Decimal `gorm:"type:decimal(15,6);default:0" json:"amount"`
	Notes             string          `gorm:"type:text" json:"notes,omitempty"`
	AllocatedAt       time.Time       `gorm:"autoCreateTime" json:"allocated_at"`

	LineItem LineItem `gorm:"foreignKey:LineItemID" json:"-"`
}

// QuarterShare is the (line item, quarter, amount) triple shared by both
// consuming allocation kinds.
type QuarterShare struct {
	LineItemID uint
	Quarter    Quarter
	Amount     decimal.Decimal
}
