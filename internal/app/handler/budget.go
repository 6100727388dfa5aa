package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budget-backend/internal/app/ds"
	"budget-backend/internal/app/dto"
	"budget-backend/internal/app/ledger"
)

func budgetResponse(b *ds.ApprovedBudget) dto.BudgetResponse {
	return dto.BudgetResponse{
		ID:              b.ID,
		Title:           b.Title,
		FiscalYear:      b.FiscalYear,
		Amount:          b.Amount,
		RemainingBudget: b.RemainingBudget,
		Description:     b.Description,
		IsArchived:      b.IsArchived,
		CreatedAt:       b.CreatedAt,
	}
}

func allocationResponse(a *ds.BudgetAllocation) dto.AllocationResponse {
	return dto.AllocationResponse{
		ID:               a.ID,
		ApprovedBudgetID: a.ApprovedBudgetID,
		Department:       a.Department,
		EndUserID:        a.EndUserID,
		AllocatedAmount:  a.AllocatedAmount,
		RemainingBalance: a.RemainingBalance,
		PlanUsed:         a.PlanUsed,
		PRUsed:           a.PRUsed,
		ADUsed:           a.ADUsed,
		IsArchived:       a.IsArchived,
	}
}

func (h *Handler) CreateBudget(ctx *gin.Context) {
	var req dto.CreateBudgetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.errorHandler(ctx, http.StatusBadRequest, err)
		return
	}

	budget := ds.ApprovedBudget{
		Title:       req.Title,
		FiscalYear:  req.FiscalYear,
		Amount:      req.Amount,
		Description: req.Description,
		CreatedByID: h.actorID(ctx),
	}
	if err := h.Repository.CreateApprovedBudget(&budget); err != nil {
		h.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   budgetResponse(&budget),
	})
}

func (h *Handler) GetBudget(ctx *gin.Context) {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	budget, err := h.Repository.GetApprovedBudget(id, includeArchived(ctx))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": budgetResponse(budget)})
}

func (h *Handler) ListBudgets(ctx *gin.Context) {
	budgets, err := h.Repository.ListApprovedBudgets(includeArchived(ctx))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	out := make([]dto.BudgetResponse, len(budgets))
	for i := range budgets {
		out[i] = budgetResponse(&budgets[i])
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": out, "total": len(out)})
}

func (h *Handler) CreateAllocation(ctx *gin.Context) {
	var req dto.CreateAllocationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.errorHandler(ctx, http.StatusBadRequest, err)
		return
	}

	alloc := ds.BudgetAllocation{
		ApprovedBudgetID: req.ApprovedBudgetID,
		Department:       req.Department,
		EndUserID:        req.EndUserID,
		AllocatedAmount:  req.AllocatedAmount,
	}
	if err := h.Repository.CreateAllocation(&alloc, h.actorID(ctx)); err != nil {
		h.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"status": "success", "data": allocationResponse(&alloc)})
}

func (h *Handler) GetAllocation(ctx *gin.Context) {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	alloc, err := h.Repository.GetAllocation(id, includeArchived(ctx))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": allocationResponse(alloc)})
}

func (h *Handler) UpdateAllocation(ctx *gin.Context) {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	var req dto.UpdateAllocationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.errorHandler(ctx, http.StatusBadRequest, err)
		return
	}
	if err := h.Repository.UpdateAllocationAmount(id, req.AllocatedAmount, h.actorID(ctx)); err != nil {
		h.fail(ctx, err)
		return
	}
	alloc, err := h.Repository.GetAllocation(id, true)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": allocationResponse(alloc)})
}

func (h *Handler) ListAllocations(ctx *gin.Context) {
	budgetID, err := parseUintParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	allocs, err := h.Repository.ListAllocations(budgetID, includeArchived(ctx))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	out := make([]dto.AllocationResponse, len(allocs))
	for i := range allocs {
		out[i] = allocationResponse(&allocs[i])
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": out, "total": len(out)})
}

func (h *Handler) ListTransactions(ctx *gin.Context) {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	txs, err := h.Repository.ListTransactions(id)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": txs, "total": len(txs)})
}

func (h *Handler) GetAvailablePlanBudget(ctx *gin.Context) {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	available, err := ledger.AvailablePlanBudget(h.Repository.DB(), id)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "available": available})
}

func (h *Handler) ArchiveBudget(ctx *gin.Context) {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	var req dto.ArchiveRequest
	_ = ctx.ShouldBindJSON(&req)

	err = h.Repository.ArchiveBudgetCascade(id, ds.ArchiveManual, h.actorID(ctx), req.Reason)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "message": "budget archived"})
}

func (h *Handler) RestoreBudget(ctx *gin.Context) {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	if err := h.Repository.RestoreBudgetCascade(id); err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "message": "budget restored"})
}

func (h *Handler) ArchiveAllocation(ctx *gin.Context) {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	var req dto.ArchiveRequest
	_ = ctx.ShouldBindJSON(&req)

	err = h.Repository.ArchiveAllocationCascade(id, ds.ArchiveManual, h.actorID(ctx), req.Reason)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "message": "allocation archived"})
}

func (h *Handler) RestoreAllocation(ctx *gin.Context) {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	if err := h.Repository.RestoreAllocationCascade(id); err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "message": "allocation restored"})
}
