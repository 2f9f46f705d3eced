package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	iauth "github.com/sitepulse/sitepulse/internal/auth"
	"github.com/sitepulse/sitepulse/internal/middleware"
	"github.com/sitepulse/sitepulse/internal/models"
	appErrors "github.com/sitepulse/sitepulse/pkg/errors"
	"github.com/sitepulse/sitepulse/pkg/logger"
	"github.com/sitepulse/sitepulse/pkg/metrics"
	"github.com/sitepulse/sitepulse/pkg/response"
)

// AuthHandler manages admin authentication (login/me).
type AuthHandler struct {
	db            *gorm.DB
	jwt           *iauth.JWTService
	authenticator *iauth.LocalAuthenticator
}

func NewAuthHandler(db *gorm.DB, jwt *iauth.JWTService, authenticator *iauth.LocalAuthenticator) *AuthHandler {
	return &AuthHandler{db: db, jwt: jwt, authenticator: authenticator}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.authenticator.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		if errors.Is(err, iauth.ErrInvalidCredentials) {
			response.Error(c, appErrors.ErrInvalidCredentials)
			return
		}
		logger.WithModule("auth").Error("login failed", zap.Error(err))
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Username)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		logger.WithModule("auth").Error("token generation failed", zap.Error(err))
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()

	response.Success(c, http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(h.jwt.TTL().Seconds()),
		"user": gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"last_login": user.LastLogin,
		},
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetUint64(middleware.CtxUserIDKey)
	if userID == 0 {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var user models.AdminUser
	if err := h.db.WithContext(c.Request.Context()).Take(&user, "id = ?", userID).Error; err != nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"last_login": user.LastLogin,
		"created_at": user.CreatedAt,
	})
}
