package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/accord-backend/internal/http/response"
	"github.com/yungbote/accord-backend/internal/platform/apierr"
	"github.com/yungbote/accord-backend/internal/platform/logger"
	"github.com/yungbote/accord-backend/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{log: log.With("handler", "AuthHandler"), authService: authService}
}

type loginRequest struct {
	WorkspaceID string `json:"workspace_id"`
	UserID      string `json:"user_id"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// POST /api/auth/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	token, expiresAt, err := ah.authService.IssueToken(c.Request.Context(), req.WorkspaceID, req.UserID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, loginResponse{Token: token, ExpiresAt: expiresAt})
}
