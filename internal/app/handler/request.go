package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budget-backend/internal/app/ds"
	"budget-backend/internal/app/dto"
)

func sharesFromInput(in []dto.QuarterShareInput) []ds.QuarterShare {
	shares := make([]ds.QuarterShare, len(in))
	for i, s := range in {
		shares[i] = ds.QuarterShare{
			LineItemID: s.LineItemID,
			Quarter:    ds.Quarter(s.Quarter),
			Amount:     s.Amount,
		}
	}
	return shares
}

func (h *Handler) CreatePurchaseRequest(ctx *gin.Context) {
	var req dto.CreatePurchaseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.errorHandler(ctx, http.StatusBadRequest, err)
		return
	}

	pr := ds.PurchaseRequest{
		PRNumber:           req.PRNumber,
		BudgetAllocationID: req.BudgetAllocationID,
		Purpose:            req.Purpose,
		SubmittedByID:      h.actorID(ctx),
	}
	if err := h.Repository.CreatePurchaseRequest(&pr, sharesFromInput(req.Allocations)); err != nil {
		h.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"status": "success", "data": pr})
}

func (h *Handler) GetPurchaseRequest(ctx *gin.Context) {
	id, err := parseUUIDParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	pr, err := h.Repository.GetPurchaseRequest(id, includeArchived(ctx))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": pr})
}

func (h *Handler) ListPurchaseRequests(ctx *gin.Context) {
	allocationID, err := parseUintParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	prs, err := h.Repository.ListPurchaseRequests(allocationID, includeArchived(ctx))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": prs, "total": len(prs)})
}

func (h *Handler) CreateActivityRequest(ctx *gin.Context) {
	var req dto.CreateActivityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.errorHandler(ctx, http.StatusBadRequest, err)
		return
	}

	ad := ds.ActivityRequest{
		ADNumber:           req.ADNumber,
		BudgetAllocationID: req.BudgetAllocationID,
		ActivityTitle:      req.ActivityTitle,
		Purpose:            req.Purpose,
		SubmittedByID:      h.actorID(ctx),
	}
	if err := h.Repository.CreateActivityRequest(&ad, sharesFromInput(req.Allocations)); err != nil {
		h.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"status": "success", "data": ad})
}

func (h *Handler) GetActivityRequest(ctx *gin.Context) {
	id, err := parseUUIDParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ad, err := h.Repository.GetActivityRequest(id, includeArchived(ctx))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": ad})
}

func (h *Handler) ListActivityRequests(ctx *gin.Context) {
	allocationID, err := parseUintParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ads, err := h.Repository.ListActivityRequests(allocationID, includeArchived(ctx))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": ads, "total": len(ads)})
}
