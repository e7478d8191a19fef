package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/accord-backend/internal/http/response"
	"github.com/yungbote/accord-backend/internal/platform/apierr"
	"github.com/yungbote/accord-backend/internal/platform/ctxutil"
	"github.com/yungbote/accord-backend/internal/platform/logger"
	"github.com/yungbote/accord-backend/internal/services"
)

var errMissingToken = errors.New("missing or invalid token")

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	middlewareLogger := log.With("Middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService}
}

// RequireAuth resolves the bearer token to a workspace and user and stores
// them on the request context.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			response.AbortWithError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, errMissingToken)
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Debug("token rejected", "path", c.Request.URL.Path, "error", err)
			response.AbortWithError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, err)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		rd := ctxutil.GetRequestData(ctx)
		if rd == nil || rd.WorkspaceID == "" || rd.UserID == "" {
			response.AbortWithError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, errMissingToken)
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
