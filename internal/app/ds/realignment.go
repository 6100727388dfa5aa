package ds

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Realignment transfers quarterly funds from one line item to another.
// It goes through the same approval workflow as the consuming documents;
// funds move only when the realignment is finalized.
type Realignment struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequestedByID *uint     `gorm:"default:null" json:"requested_by_id,omitempty"`
	ApprovedByID  *uint     `gorm:"default:null" json:"approved_by_id,omitempty"`
	Status        Status    `gorm:"type:varchar(30);default:'Draft'" json:"status"`
	Reason        string    `gorm:"type:text" json:"reason,omitempty"`

	SourcePlanID     uuid.UUID `gorm:"type:uuid;not null;index" json:"source_plan_id"`
	SourceLineItemID uint      `gorm:"not null;index" json:"source_line_item_id"`
	TargetPlanID     uuid.UUID `gorm:"type:uuid;not null;index" json:"target_plan_id"`
	TargetLineItemID uint      `gorm:"not null;index" json:"target_line_item_id"`

	Q1Amount decimal.Decimal `gorm:"type:decimal(15,6);default:0" json:"q1_amount"`
	Q2Amount decimal.Decimal `gorm:"type:decimal(15,6);default:0" json:"q2_amount"`
	Q3Amount decimal.Decimal `gorm:"type:decimal(15,6);default:0" json:"q3_amount"`
	Q4Amount decimal.Decimal `gorm:"type:decimal(15,6);default:0" json:"q4_amount"`

	SubmittedAt          *time.Time `gorm:"default:null" json:"submitted_at,omitempty"`
	PartiallyApprovedAt  *time.Time `gorm:"default:null" json:"partially_approved_at,omitempty"`
	FinalApprovedAt      *time.Time `gorm:"default:null" json:"final_approved_at,omitempty"`
	AwaitingVerification bool       `gorm:"default:false" json:"awaiting_verification"`
	EndUserUploadedAt    *time.Time `gorm:"default:null" json:"end_user_uploaded_at,omitempty"`
	AdminNotes           string     `gorm:"type:text" json:"admin_notes,omitempty"`
	RejectionReason      string     `gorm:"type:text" json:"rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ArchiveFields

	SourceLineItem LineItem `gorm:"foreignKey:SourceLineItemID" json:"-"`
	TargetLineItem LineItem `gorm:"foreignKey:TargetLineItemID" json:"-"`
}

func (r *Realignment) DocumentID() string         { return r.ID.String() }
func (r *Realignment) DocumentType() DocumentType { return DocTypeRealignment }
func (r *Realignment) CurrentStatus() Status      { return r.Status }
func (r *Realignment) OwningAllocationID() uint   { return 0 }

// Amount is the total transferred across all quarters.
func (r *Realignment) Amount() decimal.Decimal {
	return r.Q1Amount.Add(r.Q2Amount).Add(r.Q3Amount).Add(r.Q4Amount)
}

// QuarterAmount returns the transfer amount for one quarter.
func (r *Realignment) QuarterAmount(q Quarter) decimal.Decimal {
	switch q {
	case Q1:
		return r.Q1Amount
	case Q2:
		return r.Q2Amount
	case Q3:
		return r.Q3Amount
	case Q4:
		return r.Q4Amount
	}
	return decimal.Zero
}

// SelectedQuarters lists the quarters with a positive transfer amount.
func (r *Realignment) SelectedQuarters() []Quarter {
	var out []Quarter
	for _, q := range Quarters {
		if r.QuarterAmount(q).IsPositive() {
			out = append(out, q)
		}
	}
	return out
}
