package ds

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenditurePlan (PRE) is a quarterly spending plan owned by one
// BudgetAllocation. Once Approved it becomes the authoritative spend
// ceiling for the allocation.
type ExpenditurePlan struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	BudgetAllocationID uint            `gorm:"not null;index" json:"budget_allocation_id"`
	SubmittedByID      *uint           `gorm:"default:null" json:"submitted_by_id,omitempty"`
	Department         string          `gorm:"type:varchar(255)" json:"department"`
	Program            string          `gorm:"type:varchar(255)" json:"program,omitempty"`
	FundSource         string          `gorm:"type:varchar(100)" json:"fund_source,omitempty"`
	FiscalYear         string          `gorm:"type:varchar(10)" json:"fiscal_year"`
	Status             Status          `gorm:"type:varchar(30);default:'Draft'" json:"status"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(15,6);default:0" json:"total_amount"`

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

	BudgetAllocation BudgetAllocation `gorm:"foreignKey:BudgetAllocationID" json:"-"`
	LineItems        []LineItem       `gorm:"foreignKey:PlanID" json:"line_items,omitempty"`
}

func (p *ExpenditurePlan) DocumentID() string         { return p.ID.String() }
func (p *ExpenditurePlan) DocumentType() DocumentType { return DocTypePlan }
func (p *ExpenditurePlan) CurrentStatus() Status      { return p.Status }
func (p *ExpenditurePlan) Amount() decimal.Decimal    { return p.TotalAmount }
func (p *ExpenditurePlan) OwningAllocationID() uint   { return p.BudgetAllocationID }

// LineItem is one budget category of a plan, split into four quarters.
// The item total is always the sum of the quarterly amounts.
type LineItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	PlanID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"plan_id"`
	Category    string          `gorm:"type:varchar(100);not null" json:"category"`
	Subcategory string          `gorm:"type:varchar(255)" json:"subcategory,omitempty"`
	ItemName    string          `gorm:"type:varchar(255);not null" json:"item_name"`
	ItemCode    string          `gorm:"type:varchar(50)" json:"item_code,omitempty"`
	Q1Amount    decimal.Decimal `gorm:"type:decimal(15,6);default:0" json:"q1_amount"`
	Q2Amount    decimal.Decimal `gorm:"type:decimal(15,6);default:0" json:"q2_amount"`
	Q3Amount    decimal.Decimal `gorm:"type:decimal(15,6);default:0" json:"q3_amount"`
	Q4Amount    decimal.Decimal `gorm:"type:decimal(15,6);default:0" json:"q4_amount"`
	Remarks     string          `gorm:"type:text" json:"remarks,omitempty"`

	Plan ExpenditurePlan `gorm:"foreignKey:PlanID" json:"-"`
}

// QuarterAmount returns the budgeted amount for one quarter.
func (li *LineItem) QuarterAmount(q Quarter) decimal.Decimal {
	switch q {
	case Q1:
		return li.Q1Amount
	case Q2:
		return li.Q2Amount
	case Q3:
		return li.Q3Amount
	case Q4:
		return li.Q4Amount
	}
	return decimal.Zero
}

// SetQuarterAmount overwrites the budgeted amount for one quarter.
func (li *LineItem) SetQuarterAmount(q Quarter, amount decimal.Decimal) {
	switch q {
	case Q1:
		li.Q1Amount = amount
	case Q2:
		li.Q2Amount = amount
	case Q3:
		li.Q3Amount = amount
	case Q4:
		li.Q4Amount = amount
	}
}

// Total is the sum of all four quarterly amounts.
func (li *LineItem) Total() decimal.Decimal {
	return li.Q1Amount.Add(li.Q2Amount).Add(li.Q3Amount).Add(li.Q4Amount)
}
