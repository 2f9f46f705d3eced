package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sitepulse/sitepulse/internal/services"
	"github.com/sitepulse/sitepulse/pkg/errors"
	"github.com/sitepulse/sitepulse/pkg/logger"
	"github.com/sitepulse/sitepulse/pkg/response"
)

// PushHandler manages browser push subscriptions and notification dispatch.
type PushHandler struct {
	svc *services.PushService
}

func NewPushHandler(svc *services.PushService) *PushHandler {
	return &PushHandler{svc: svc}
}

type subscriptionKeys struct {
	P256DH string `json:"p256dh" validate:"required"`
	Auth   string `json:"auth" validate:"required"`
}

type subscribeRequest struct {
	Endpoint string           `json:"endpoint" validate:"required,url,max=512"`
	Keys     subscriptionKeys `json:"keys"`
}

// POST /api/push/subscribe
func (h *PushHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	sub, err := h.svc.Subscribe(c.Request.Context(), services.SubscribeInput{
		Endpoint:  req.Endpoint,
		P256DH:    req.Keys.P256DH,
		Auth:      req.Keys.Auth,
		UserAgent: c.Request.UserAgent(),
		IPAddress: clientAddress(c),
	})
	if err != nil {
		logger.WithModule("push").Error("subscribe failed", zap.Error(err))
		response.Error(c, errors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"subscription_id": sub.ID})
}

type sendRequest struct {
	Title string         `json:"title" validate:"max=256"`
	Body  string         `json:"body" validate:"max=2048"`
	Icon  string         `json:"icon" validate:"max=512"`
	Badge string         `json:"badge" validate:"max=512"`
	Tag   string         `json:"tag" validate:"max=64"`
	Data  map[string]any `json:"data"`
}

// POST /api/push/send
func (h *PushHandler) Send(c *gin.Context) {
	var req sendRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.svc.Send(c.Request.Context(), services.SendInput{
		Title: req.Title,
		Body:  req.Body,
		Icon:  req.Icon,
		Badge: req.Badge,
		Tag:   req.Tag,
		Data:  req.Data,
	})
	if err != nil {
		logger.WithModule("push").Error("send failed", zap.Error(err))
		response.Error(c, errors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GET /api/push/stats
func (h *PushHandler) Stats(c *gin.Context) {
	days := parseIntQuery(c, "days", 0)

	stats, err := h.svc.Stats(c.Request.Context(), days)
	if err != nil {
		logger.WithModule("push").Error("stats failed", zap.Error(err))
		response.Error(c, errors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, stats)
}
