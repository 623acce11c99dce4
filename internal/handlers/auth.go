package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fundtrack/fundtrack/internal/middleware"
	"github.com/fundtrack/fundtrack/internal/types"
	"github.com/fundtrack/fundtrack/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/juju/errors"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateMaxAge = 10 * 60
)

type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	CompanyName string `json:"companyName" binding:"required"`
}

type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername" binding:"required"`
	Password        string `json:"password" binding:"required"`
}

func (h *Handler) Register(ctx *gin.Context) {
	var body RegisterRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, err)
		return
	}

	result, err := h.identity.Register(ctx.Request.Context(), body.Email, body.Username, body.Password, body.CompanyName)

	if err != nil {
		respondError(ctx, err)
		return
	}

	h.setTokenCookie(ctx, result.Token)

	response := types.NewAuthResponse(result.User, result.Token)
	response.Company = nil

	ctx.JSON(http.StatusCreated, response)
}

func (h *Handler) Login(ctx *gin.Context) {
	var body LoginRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, err)
		return
	}

	result, err := h.identity.Login(ctx.Request.Context(), body.EmailOrUsername, body.Password)

	if err != nil {
		respondError(ctx, err)
		return
	}

	h.setTokenCookie(ctx, result.Token)

	ctx.JSON(http.StatusOK, types.NewAuthResponse(result.User, result.Token))
}

func (h *Handler) Logout(ctx *gin.Context) {
	h.setCookie(ctx.Writer, middleware.TokenCookie, "", -1)

	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// GoogleLogin redirects to Google's consent page. The state is echoed back
// on the callback and checked against a short-lived cookie.
func (h *Handler) GoogleLogin(ctx *gin.Context) {
	if h.google == nil {
		respondError(ctx, errors.NotFoundf("google sign-in"))
		return
	}

	state := uuid.NewString()
	h.setCookie(ctx.Writer, oauthStateCookie, state, oauthStateMaxAge)

	ctx.Redirect(http.StatusTemporaryRedirect, h.google.AuthCodeURL(state))
}

func (h *Handler) GoogleCallback(ctx *gin.Context) {
	if h.google == nil {
		respondError(ctx, errors.NotFoundf("google sign-in"))
		return
	}

	state, err := ctx.Cookie(oauthStateCookie)

	if err != nil || state == "" || ctx.Query("state") != state {
		respondError(ctx, errors.BadRequestf("invalid oauth state"))
		return
	}

	h.setCookie(ctx.Writer, oauthStateCookie, "", -1)

	code := ctx.Query("code")

	if code == "" {
		respondError(ctx, errors.BadRequestf("missing oauth code"))
		return
	}

	profile, err := h.google.Exchange(ctx.Request.Context(), code)

	if err != nil {
		logger.Warningf("google code exchange failed: %v", err)
		respondError(ctx, errors.Unauthorizedf("google sign-in failed"))
		return
	}

	result, err := h.identity.ValidateGoogleUser(ctx.Request.Context(), profile)

	if err != nil {
		respondError(ctx, err)
		return
	}

	h.setTokenCookie(ctx, result.Token)

	target := strings.TrimSuffix(h.clientURL, "/") + "/auth/callback?token=" + url.QueryEscape(result.Token)
	ctx.Redirect(http.StatusFound, target)
}

func (h *Handler) Me(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	user, err := h.identity.GetUser(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.NewMeResponse(*user))
}

// TestAuth echoes the authenticated user as the middleware saw it.
func (h *Handler) TestAuth(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Authentication working",
		"user":    user,
	})
}

func (h *Handler) setTokenCookie(ctx *gin.Context, token string) {
	h.setCookie(ctx.Writer, middleware.TokenCookie, token, int(h.tokenTTL/time.Second))
}
