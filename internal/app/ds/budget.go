package ds

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApprovedBudget is the top-level fund pool for one fiscal year.
// Never deleted, only archived.
type ApprovedBudget struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Title           string          `gorm:"type:varchar(255);not null" json:"title"`
	FiscalYear      string          `gorm:"type:varchar(10);not null;uniqueIndex" json:"fiscal_year"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,6);not null" json:"amount"`
	RemainingBudget decimal.Decimal `gorm:"type:decimal(15,6);not null" json:"remaining_budget"`
	Description     string          `gorm:"type:text" json:"description,omitempty"`
	CreatedByID     *uint           `gorm:"default:null" json:"created_by_id,omitempty"`
	IsActive        bool            `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	ArchiveFields
}

// BudgetAllocation is a department/end-user share of an ApprovedBudget.
// The PlanUsed counter is informational; PRUsed and ADUsed are the
// authoritative usage, both bumped only at final approval.
type BudgetAllocation struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	ApprovedBudgetID uint            `gorm:"not null;index;uniqueIndex:idx_budget_end_user" json:"approved_budget_id"`
	Department       string          `gorm:"type:varchar(255);not null" json:"department"`
	EndUserID        uint            `gorm:"not null;uniqueIndex:idx_budget_end_user" json:"end_user_id"`
	AllocatedAmount  decimal.Decimal `gorm:"type:decimal(15,6);not null" json:"allocated_amount"`
	RemainingBalance decimal.Decimal `gorm:"type:decimal(15,6);not null" json:"remaining_balance"`
	PlanUsed         decimal.Decimal `gorm:"type:decimal(15,6);default:0" json:"plan_used"`
	PRUsed           decimal.Decimal `gorm:"type:decimal(15,6);default:0" json:"pr_used"`
	ADUsed           decimal.Decimal `gorm:"type:decimal(15,6);default:0" json:"ad_used"`
	IsActive         bool            `gorm:"default:true" json:"is_active"`
	AllocatedAt      time.Time       `gorm:"autoCreateTime" json:"allocated_at"`
	ArchiveFields

	ApprovedBudget ApprovedBudget `gorm:"foreignKey:ApprovedBudgetID" json:"-"`
}

// TotalUsed is the authoritative consumed amount: purchase plus activity
// usage. Plan usage is deliberately excluded.
func (a *BudgetAllocation) TotalUsed() decimal.Decimal {
	return a.PRUsed.Add(a.ADUsed)
}
