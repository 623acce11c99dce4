package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fundtrack/fundtrack/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorStatus(t *testing.T) {
	for _, test := range []struct {
		err    error
		status int
	}{
		{errors.NotValidf("name"), http.StatusBadRequest},
		{errors.BadRequestf("invalid oauth state"), http.StatusBadRequest},
		{errors.Unauthorizedf("token"), http.StatusUnauthorized},
		{errors.Forbiddenf("project 1"), http.StatusForbidden},
		{errors.Annotate(errors.NotFoundf("project 1"), "loading"), http.StatusNotFound},
		{errors.AlreadyExistsf("email"), http.StatusConflict},
		{errors.Trace(services.ErrInvalidCredentials), http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	} {
		assert.Equal(t, test.status, errorStatus(test.err), test.err.Error())
	}
}

func TestRespondErrorHidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/projects", nil)

	respondError(ctx, errors.Annotate(errors.New("pq: password authentication failed"), "listing projects"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
	assert.True(t, ctx.IsAborted())
}

func TestRespondErrorShowsKindMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/projects/7", nil)

	respondError(ctx, errors.NotFoundf("project %d", 7))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"project 7 not found"}`, rec.Body.String())
}
