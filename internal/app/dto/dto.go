package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============ Shared ============

type ErrorResponse struct {
	Status      string `json:"status"`
	Description string `json:"description"`
}

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ============ Approved budgets ============

type CreateBudgetRequest struct {
	Title       string          `json:"title" binding:"required"`
	FiscalYear  string          `json:"fiscal_year" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
}

type BudgetResponse struct {
	ID              uint            `json:"id"`
	Title           string          `json:"title"`
	FiscalYear      string          `json:"fiscal_year"`
	Amount          decimal.Decimal `json:"amount"`
	RemainingBudget decimal.Decimal `json:"remaining_budget"`
	Description     string          `json:"description,omitempty"`
	IsArchived      bool            `json:"is_archived"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ============ Allocations ============

type CreateAllocationRequest struct {
	ApprovedBudgetID uint            `json:"approved_budget_id" binding:"required"`
	Department       string          `json:"department" binding:"required"`
	EndUserID        uint            `json:"end_user_id" binding:"required"`
	AllocatedAmount  decimal.Decimal `json:"allocated_amount" binding:"required"`
}

type UpdateAllocationRequest struct {
	AllocatedAmount decimal.Decimal `json:"allocated_amount" binding:"required"`
}

type AllocationResponse struct {
	ID               uint            `json:"id"`
	ApprovedBudgetID uint            `json:"approved_budget_id"`
	Department       string          `json:"department"`
	EndUserID        uint            `json:"end_user_id"`
	AllocatedAmount  decimal.Decimal `json:"allocated_amount"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	PlanUsed         decimal.Decimal `json:"plan_used"`
	PRUsed           decimal.Decimal `json:"pr_used"`
	ADUsed           decimal.Decimal `json:"ad_used"`
	IsArchived       bool            `json:"is_archived"`
}

// ============ Plans and line items ============

type LineItemInput struct {
	Category    string          `json:"category" binding:"required"`
	Subcategory string          `json:"subcategory"`
	ItemName    string          `json:"item_name" binding:"required"`
	ItemCode    string          `json:"item_code"`
	Q1Amount    decimal.Decimal `json:"q1_amount"`
	Q2Amount    decimal.Decimal `json:"q2_amount"`
	Q3Amount    decimal.Decimal `json:"q3_amount"`
	Q4Amount    decimal.Decimal `json:"q4_amount"`
	Remarks     string          `json:"remarks"`
}

type CreatePlanRequest struct {
	BudgetAllocationID uint            `json:"budget_allocation_id" binding:"required"`
	Program            string          `json:"program"`
	FundSource         string          `json:"fund_source"`
	FiscalYear         string          `json:"fiscal_year" binding:"required"`
	LineItems          []LineItemInput `json:"line_items" binding:"required,min=1"`
}

type UpdateLineItemRequest struct {
	Q1Amount *decimal.Decimal `json:"q1_amount"`
	Q2Amount *decimal.Decimal `json:"q2_amount"`
	Q3Amount *decimal.Decimal `json:"q3_amount"`
	Q4Amount *decimal.Decimal `json:"q4_amount"`
}

// ============ Consuming requests ============

type QuarterShareInput struct {
	LineItemID uint            `json:"line_item_id" binding:"required"`
	Quarter    string          `json:"quarter" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
}

type CreatePurchaseRequest struct {
	PRNumber           string              `json:"pr_number" binding:"required"`
	BudgetAllocationID uint                `json:"budget_allocation_id" binding:"required"`
	Purpose            string              `json:"purpose"`
	Allocations        []QuarterShareInput `json:"allocations" binding:"required,min=1"`
}

type CreateActivityRequest struct {
	ADNumber           string              `json:"ad_number" binding:"required"`
	BudgetAllocationID uint                `json:"budget_allocation_id" binding:"required"`
	ActivityTitle      string              `json:"activity_title" binding:"required"`
	Purpose            string              `json:"purpose"`
	Allocations        []QuarterShareInput `json:"allocations" binding:"required,min=1"`
}

// ============ Realignments ============

type CreateRealignmentRequest struct {
	SourceLineItemID uint            `json:"source_line_item_id" binding:"required"`
	TargetLineItemID uint            `json:"target_line_item_id" binding:"required"`
	Q1Amount         decimal.Decimal `json:"q1_amount"`
	Q2Amount         decimal.Decimal `json:"q2_amount"`
	Q3Amount         decimal.Decimal `json:"q3_amount"`
	Q4Amount         decimal.Decimal `json:"q4_amount"`
	Reason           string          `json:"reason"`
}

// ============ Workflow actions ============

type WorkflowActionRequest struct {
	Notes  string `json:"notes"`
	Reason string `json:"reason"`
}

// ============ Archive ============

type ArchiveRequest struct {
	Reason string `json:"reason"`
}

// ============ Users ============

type UserResponse struct {
	ID         uint   `json:"id"`
	Login      string `json:"login"`
	FullName   string `json:"full_name"`
	Department string `json:"department,omitempty"`
	IsAdmin    bool   `json:"is_admin"`
}

type RegisterRequest struct {
	Login      string `json:"login" binding:"required,min=3,max=50"`
	Password   string `json:"password" binding:"required,min=6"`
	FullName   string `json:"full_name" binding:"required"`
	Department string `json:"department"`
	IsAdmin    bool   `json:"is_admin"`
}

type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}
