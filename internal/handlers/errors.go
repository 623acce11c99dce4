package handlers

import (
	"net/http"

	"github.com/fundtrack/fundtrack/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
)

// respondError writes err with the status matching its kind. Unexpected
// errors are logged with their trace and hidden from the client.
func respondError(ctx *gin.Context, err error) {
	status := errorStatus(err)

	if status == http.StatusInternalServerError {
		logger.Errorf("%s %s: %s", ctx.Request.Method, ctx.Request.URL.Path, errors.ErrorStack(err))
		ctx.AbortWithStatusJSON(status, gin.H{"error": "Internal server error"})
		return
	}

	ctx.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, errors.NotValid), errors.Is(err, errors.BadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errors.Unauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errors.Forbidden):
		return http.StatusForbidden
	case errors.Is(err, errors.NotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.AlreadyExists), errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(ctx *gin.Context, err error) {
	logger.Debugf("invalid %s %s body: %v", ctx.Request.Method, ctx.Request.URL.Path, err)
	ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
}
