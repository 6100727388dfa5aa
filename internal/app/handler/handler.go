package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"budget-backend/internal/app/config"
	"budget-backend/internal/app/ds"
	"budget-backend/internal/app/ledger"
	"budget-backend/internal/app/middleware"
	"budget-backend/internal/app/redis"
	"budget-backend/internal/app/repository"
	"budget-backend/internal/app/role"
	"budget-backend/internal/app/storage"
	"budget-backend/internal/app/workflow"
)

type Handler struct {
	Repository  *repository.Repository
	Workflow    *workflow.Service
	RedisClient *redis.Client
	Config      *config.Config
	Storage     *storage.MinIOClient
}

func NewHandler(r *repository.Repository, w *workflow.Service, redisClient *redis.Client, cfg *config.Config, st *storage.MinIOClient) *Handler {
	return &Handler{
		Repository:  r,
		Workflow:    w,
		RedisClient: redisClient,
		Config:      cfg,
		Storage:     st,
	}
}

// RegisterRoutes wires all REST endpoints. End users drive their own
// documents, admins work the approval queue and the archive.
func (h *Handler) RegisterRoutes(router *gin.Engine, am *middleware.AuthMiddleware) {
	api := router.Group("/api")

	anyUser := am.WithAuthCheck(role.EndUser, role.Admin)
	adminOnly := am.WithAuthCheck(role.Admin)

	budgets := api.Group("/budgets")
	{
		budgets.GET("", anyUser, h.ListBudgets)
		budgets.GET("/:id", anyUser, h.GetBudget)
		budgets.POST("", adminOnly, h.CreateBudget)
		budgets.GET("/:id/allocations", anyUser, h.ListAllocations)
		budgets.POST("/:id/archive", adminOnly, h.ArchiveBudget)
		budgets.POST("/:id/restore", adminOnly, h.RestoreBudget)
	}

	allocations := api.Group("/allocations")
	{
		allocations.POST("", adminOnly, h.CreateAllocation)
		allocations.GET("/:id", anyUser, h.GetAllocation)
		allocations.PUT("/:id", adminOnly, h.UpdateAllocation)
		allocations.GET("/:id/transactions", anyUser, h.ListTransactions)
		allocations.GET("/:id/available-plan-budget", anyUser, h.GetAvailablePlanBudget)
		allocations.GET("/:id/plans", anyUser, h.ListPlans)
		allocations.GET("/:id/purchase-requests", anyUser, h.ListPurchaseRequests)
		allocations.GET("/:id/activity-requests", anyUser, h.ListActivityRequests)
		allocations.POST("/:id/archive", adminOnly, h.ArchiveAllocation)
		allocations.POST("/:id/restore", adminOnly, h.RestoreAllocation)
	}

	plans := api.Group("/plans")
	plans.Use(anyUser)
	{
		plans.POST("", h.CreatePlan)
		plans.GET("/:id", h.GetPlan)
		plans.GET("/:id/remaining", h.GetPlanRemaining)
		plans.GET("/:id/realignments", h.ListRealignments)
		plans.POST("/:id/line-items", h.AddLineItem)
		h.registerWorkflowRoutes(plans, ds.DocTypePlan)
	}

	lineItems := api.Group("/line-items")
	lineItems.Use(anyUser)
	{
		lineItems.PUT("/:id", h.UpdateLineItem)
		lineItems.DELETE("/:id", h.DeleteLineItem)
		lineItems.GET("/:id/breakdown", h.GetLineItemBreakdown)
	}

	purchases := api.Group("/purchase-requests")
	purchases.Use(anyUser)
	{
		purchases.POST("", h.CreatePurchaseRequest)
		purchases.GET("/:id", h.GetPurchaseRequest)
		h.registerWorkflowRoutes(purchases, ds.DocTypePurchase)
	}

	activities := api.Group("/activity-requests")
	activities.Use(anyUser)
	{
		activities.POST("", h.CreateActivityRequest)
		activities.GET("/:id", h.GetActivityRequest)
		h.registerWorkflowRoutes(activities, ds.DocTypeActivity)
	}

	realignments := api.Group("/realignments")
	realignments.Use(anyUser)
	{
		realignments.POST("", h.CreateRealignment)
		realignments.GET("/:id", h.GetRealignment)
		h.registerWorkflowRoutes(realignments, ds.DocTypeRealignment)
	}

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.LoginUser)
		auth.POST("/logout", anyUser, h.LogoutUser)
		auth.GET("/profile", anyUser, h.GetUserProfile)
	}

	router.GET("/ping", h.Ping)
}

// registerWorkflowRoutes attaches the shared transition endpoints to
// one document group.
func (h *Handler) registerWorkflowRoutes(group *gin.RouterGroup, dt ds.DocumentType) {
	group.POST("/:id/submit", h.workflowAction(dt, workflow.ActionSubmit))
	group.POST("/:id/partially-approve", h.workflowAction(dt, workflow.ActionPartiallyApprove))
	group.POST("/:id/reject", h.workflowAction(dt, workflow.ActionReject))
	group.POST("/:id/upload-signed", h.UploadSignedCopy(dt))
	group.POST("/:id/verify-approve", h.workflowAction(dt, workflow.ActionVerifyApprove))
	group.POST("/:id/verify-reject", h.workflowAction(dt, workflow.ActionVerifyReject))
	group.GET("/:id/documents", h.ListDocuments(dt))
}

// Ping answers the health probe.
func (h *Handler) Ping(ctx *gin.Context) {
	ctx.JSON(200, gin.H{"message": "pong"})
}

func (h *Handler) errorHandler(ctx *gin.Context, errorStatusCode int, err error) {
	logrus.Error(err.Error())
	body := gin.H{
		"status":      "error",
		"description": err.Error(),
	}
	var ife *ledger.InsufficientFundsError
	if errors.As(err, &ife) {
		if ife.LineItemID != 0 {
			body["line_item_id"] = ife.LineItemID
		}
		if ife.AllocationID != 0 {
			body["allocation_id"] = ife.AllocationID
		}
		body["shortfalls"] = ife.Shortfalls
	}
	ctx.JSON(errorStatusCode, body)
}

// fail classifies a domain error onto an HTTP status and reports it.
func (h *Handler) fail(ctx *gin.Context, err error) {
	h.errorHandler(ctx, statusForError(err), err)
}

func statusForError(err error) int {
	var (
		ve  *ledger.ValidationError
		ife *ledger.InsufficientFundsError
		ist *ledger.InvalidStateTransitionError
		cme *ledger.ConcurrentModificationError
		rie *ledger.ReferentialIntegrityError
	)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ife):
		return http.StatusUnprocessableEntity
	case errors.As(err, &ist):
		return http.StatusConflict
	case errors.As(err, &cme):
		return http.StatusConflict
	case errors.As(err, &rie):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) actorID(ctx *gin.Context) *uint {
	if id, ok := middleware.UserIDFromContext(ctx); ok {
		return &id
	}
	return nil
}

func parseUintParam(ctx *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		return 0, &ledger.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	return uint(v), nil
}

func parseUUIDParam(ctx *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		return uuid.Nil, &ledger.ValidationError{Field: name, Message: "must be a UUID"}
	}
	return id, nil
}

func includeArchived(ctx *gin.Context) bool {
	return ctx.Query("include_archived") == "true"
}
