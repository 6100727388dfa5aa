package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budget-backend/internal/app/ds"
	"budget-backend/internal/app/dto"
)

func (h *Handler) CreateRealignment(ctx *gin.Context) {
	var req dto.CreateRealignmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.errorHandler(ctx, http.StatusBadRequest, err)
		return
	}

	re := ds.Realignment{
		SourceLineItemID: req.SourceLineItemID,
		TargetLineItemID: req.TargetLineItemID,
		Q1Amount:         req.Q1Amount,
		Q2Amount:         req.Q2Amount,
		Q3Amount:         req.Q3Amount,
		Q4Amount:         req.Q4Amount,
		Reason:           req.Reason,
		RequestedByID:    h.actorID(ctx),
	}
	if err := h.Repository.CreateRealignment(&re); err != nil {
		h.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"status": "success", "data": re})
}

func (h *Handler) GetRealignment(ctx *gin.Context) {
	id, err := parseUUIDParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	re, err := h.Repository.GetRealignment(id, includeArchived(ctx))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": re})
}

func (h *Handler) ListRealignments(ctx *gin.Context) {
	planID, err := parseUUIDParam(ctx, "id")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	res, err := h.Repository.ListRealignments(planID, includeArchived(ctx))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": res, "total": len(res)})
}
