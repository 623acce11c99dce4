package utils

import (
	"github.com/fundtrack/fundtrack/internal/middleware"
	"github.com/fundtrack/fundtrack/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
)

func GetCurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return middleware.AuthenticatedUser{}, errors.Unauthorizedf("user not authenticated")
	}

	authenticatedUser, ok := user.(middleware.AuthenticatedUser)

	if !ok {
		return middleware.AuthenticatedUser{}, errors.Errorf("invalid user type %T in context", user)
	}

	return authenticatedUser, nil
}

func GetCurrentUserID(ctx *gin.Context) (uint, error) {
	user, err := GetCurrentUser(ctx)

	if err != nil {
		return 0, err
	}

	return user.ID, nil
}

// GetCurrentCompanyID fails with BadRequest for users without a company.
func GetCurrentCompanyID(ctx *gin.Context) (uint, error) {
	user, err := GetCurrentUser(ctx)

	if err != nil {
		return 0, err
	}

	if user.CompanyID == nil {
		return 0, errors.BadRequestf("user not associated with a company")
	}

	return *user.CompanyID, nil
}
