package handlers

import (
	"net/http"

	"github.com/fundtrack/fundtrack/internal/services"
	"github.com/fundtrack/fundtrack/internal/types"
	"github.com/fundtrack/fundtrack/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type UpdateSpendingRequest struct {
	SubtitleID uint             `json:"subtitleId" binding:"required"`
	Amount     *decimal.Decimal `json:"amount" binding:"required"`
	Reason     *string          `json:"reason"`
}

func (h *Handler) ListProjects(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	projects, err := h.projects.GetUserProjects(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.NewProjectResponses(projects))
}

func (h *Handler) CountProjects(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	count, err := h.projects.GetUserProjectCount(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.CountResponse{Count: count})
}

func (h *Handler) GetProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	project, err := h.projects.GetProject(ctx.Request.Context(), userID, projectID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.NewProjectResponse(*project))
}

func (h *Handler) CreateProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	var body services.CreateProjectInput

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, err)
		return
	}

	project, err := h.projects.CreateProject(ctx.Request.Context(), userID, body)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, types.NewProjectResponse(*project))
}

func (h *Handler) UpdateProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	var body services.ProjectPatch

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, err)
		return
	}

	project, err := h.projects.UpdateProject(ctx.Request.Context(), userID, projectID, body)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.NewProjectResponse(*project))
}

func (h *Handler) UpdateSpending(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	var body UpdateSpendingRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, err)
		return
	}

	subtitle, err := h.projects.UpdateSpending(ctx.Request.Context(), userID, projectID, body.SubtitleID, *body.Amount, body.Reason)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.NewBudgetSubtitleResponse(*subtitle))
}

func (h *Handler) GetSpendingHistory(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	projectID, subtitleID, err := utils.GetProjectSubtitleID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	records, err := h.projects.GetSpendingHistory(ctx.Request.Context(), userID, projectID, subtitleID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.NewSpendingRecordResponses(records))
}
