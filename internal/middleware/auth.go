package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/fundtrack/fundtrack/internal/auth"
	"github.com/fundtrack/fundtrack/internal/models"
	"github.com/fundtrack/fundtrack/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("fundtrack.middleware")

// TokenCookie carries the bearer token for browsers, which cannot set
// headers on websocket upgrades.
const TokenCookie = "token"

// AuthenticatedUser is what the auth middleware stores in the gin context.
// None of its fields change after sign-up, so it is safe to cache.
type AuthenticatedUser struct {
	ID        uint    `json:"id"`
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	CompanyID *uint   `json:"companyId"`
	Title     *string `json:"title"`
}

type TokenVerifier interface {
	VerifyJWT(token string) (*auth.Claims, error)
}

type UserLoader interface {
	GetUser(ctx context.Context, userID uint) (*models.User, error)
}

type UserCache interface {
	Get(ctx context.Context, userID uint, dest interface{}) bool
	Set(ctx context.Context, userID uint, value interface{})
}

// AuthMiddleware accepts "Authorization: Bearer <token>" or the token
// cookie. cache may be nil.
func AuthMiddleware(tokens TokenVerifier, users UserLoader, cache UserCache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, message := bearerToken(ctx)

		if tokenString == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
			return
		}

		claims, err := tokens.VerifyJWT(tokenString)

		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		userID, err := claims.UserID()

		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID in token claims"})
			return
		}

		var user AuthenticatedUser

		if cache == nil || !cache.Get(ctx.Request.Context(), userID, &user) {
			loaded, err := users.GetUser(ctx.Request.Context(), userID)

			if err != nil {
				logger.Debugf("token for user %d rejected: %v", userID, err)
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
				return
			}

			user = AuthenticatedUser{
				ID:        loaded.ID,
				Email:     loaded.Email,
				Username:  loaded.Username,
				CompanyID: loaded.CompanyID,
				Title:     loaded.Title,
			}

			if cache != nil {
				cache.Set(ctx.Request.Context(), userID, user)
			}
		}

		ctx.Set(types.ContextUserKey, user)
		ctx.Next()
	}
}

func bearerToken(ctx *gin.Context) (string, string) {
	authHeader := ctx.GetHeader("Authorization")

	if authHeader == "" {
		if cookie, err := ctx.Cookie(TokenCookie); err == nil && cookie != "" {
			return cookie, ""
		}
		return "", "Authorization token is required"
	}

	parts := strings.SplitN(authHeader, " ", 2)

	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", "Authorization header format must be Bearer {token}"
	}

	return strings.TrimSpace(parts[1]), ""
}
