package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"budget-backend/internal/app/ds"
	"budget-backend/internal/app/dto"
	"budget-backend/internal/app/ledger"
)

func (h *Handler) CreatePlan(ctx *gin.Context) {
	var req dto.CreatePlanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.errorHandler(ctx, http.StatusBadRequest, err)
		return
	}

	items := make([]ds.LineItem, len(req.LineItems))
	for i, in := range req.LineItems {
		items[i] = ds.LineItem{
			Category:    in.Category,
			Subcategory: in.Subcategory,
			ItemName:    in.ItemName,
			ItemCode:    in.ItemCode,
			Q1Amount:    in.Q1Amount,
			Q2Amount:    in.Q2Amount,
			Q3Amount:    in.Q3Amount,
			Q4Amount:    in.Q4Amount,
			Remarks:     in.Remarks,
		}
	}
	plan := ds.ExpenditurePlan{
		BudgetAllocationID: req.BudgetAllocationID,
		Program:            req.Program,
		FundSource:         req.FundSource,
		FiscalYear:         req.FiscalYear,
		SubmittedByID:      h.actorID(ctx),
	}
	if err := h.Repository.CreatePlan(&plan, items); err != nil {
		h.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"status": "success", "data": plan})
}

func (h *Handler) GetPlan(ctx *gin.Context) {
	id, err := parseUUIDParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	plan, err := h.Repository.GetPlan(id, includeArchived(ctx))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": plan})
}

func (h *Handler) ListPlans(ctx *gin.Context) {
	allocationID, err := parseUintParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	plans, err := h.Repository.ListPlans(allocationID, includeArchived(ctx))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": plans, "total": len(plans)})
}

func (h *Handler) GetPlanRemaining(ctx *gin.Context) {
	id, err := parseUUIDParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	remaining, err := ledger.PlanRemaining(h.Repository.DB(), id)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	consumed, err := ledger.PlanConsumed(h.Repository.DB(), id)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"remaining": remaining,
		"consumed":  consumed,
	})
}

func (h *Handler) AddLineItem(ctx *gin.Context) {
	planID, err := parseUUIDParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	var in dto.LineItemInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		h.errorHandler(ctx, http.StatusBadRequest, err)
		return
	}
	li := ds.LineItem{
		Category:    in.Category,
		Subcategory: in.Subcategory,
		ItemName:    in.ItemName,
		ItemCode:    in.ItemCode,
		Q1Amount:    in.Q1Amount,
		Q2Amount:    in.Q2Amount,
		Q3Amount:    in.Q3Amount,
		Q4Amount:    in.Q4Amount,
		Remarks:     in.Remarks,
	}
	if err := h.Repository.AddLineItem(planID, &li); err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"status": "success", "data": li})
}

func (h *Handler) UpdateLineItem(ctx *gin.Context) {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	var req dto.UpdateLineItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.errorHandler(ctx, http.StatusBadRequest, err)
		return
	}

	amounts := map[ds.Quarter]decimal.Decimal{}
	for q, v := range map[ds.Quarter]*decimal.Decimal{
		ds.Q1: req.Q1Amount,
		ds.Q2: req.Q2Amount,
		ds.Q3: req.Q3Amount,
		ds.Q4: req.Q4Amount,
	} {
		if v != nil {
			amounts[q] = *v
		}
	}
	if len(amounts) == 0 {
		h.fail(ctx, &ledger.ValidationError{Field: "amounts", Message: "no quarter amounts given"})
		return
	}
	if err := h.Repository.UpdateLineItemAmounts(id, amounts); err != nil {
		h.fail(ctx, err)
		return
	}
	li, err := h.Repository.GetLineItem(id)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": li})
}

func (h *Handler) DeleteLineItem(ctx *gin.Context) {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	if err := h.Repository.DeleteLineItem(id); err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "message": "line item deleted"})
}

func (h *Handler) GetLineItemBreakdown(ctx *gin.Context) {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	li, err := h.Repository.GetLineItem(id)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	figures, err := ledger.LineItemBreakdown(h.Repository.DB(), li)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"line_item": li,
		"quarters":  figures,
	})
}
