package handlers

import (
	"net/http"

	"github.com/fundtrack/fundtrack/internal/services"
	"github.com/fundtrack/fundtrack/internal/types"
	"github.com/fundtrack/fundtrack/internal/utils"
	"github.com/gin-gonic/gin"
)

type UpdateLogoRequest struct {
	Logo *string `json:"logo"`
}

func (h *Handler) GetCompany(ctx *gin.Context) {
	companyID, err := utils.GetCurrentCompanyID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	company, err := h.companies.GetCompany(ctx.Request.Context(), companyID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.NewCompanyResponse(company))
}

func (h *Handler) UpdateLogo(ctx *gin.Context) {
	companyID, err := utils.GetCurrentCompanyID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	var body UpdateLogoRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, err)
		return
	}

	company, err := h.companies.UpdateLogo(ctx.Request.Context(), companyID, body.Logo)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.NewCompanyResponse(company))
}

func (h *Handler) UpdateCompanyInfo(ctx *gin.Context) {
	companyID, err := utils.GetCurrentCompanyID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	var body services.CompanyPatch

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, err)
		return
	}

	company, err := h.companies.UpdateCompanyInfo(ctx.Request.Context(), companyID, body)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.NewCompanyResponse(company))
}
