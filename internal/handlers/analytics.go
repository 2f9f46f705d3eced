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

// AnalyticsHandler exposes event ingestion and aggregate reporting.
type AnalyticsHandler struct {
	svc *services.AnalyticsService
}

func NewAnalyticsHandler(svc *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// All body fields are optional; events from minimal tracking snippets still
// count toward the summary totals.
type trackRequest struct {
	SessionID     string         `json:"session_id" validate:"max=128"`
	ActionType    string         `json:"action_type" validate:"max=64"`
	ActionDetails map[string]any `json:"action_details"`
	PageURL       string         `json:"page_url" validate:"max=2048"`
	Referrer      string         `json:"referrer" validate:"max=2048"`
}

// POST /api/analytics/events
func (h *AnalyticsHandler) Track(c *gin.Context) {
	var req trackRequest
	if !bindAndValidate(c, &req) {
		return
	}

	id, err := h.svc.RecordAction(c.Request.Context(), services.RecordActionInput{
		SessionID:     req.SessionID,
		ActionType:    req.ActionType,
		ActionDetails: req.ActionDetails,
		PageURL:       req.PageURL,
		Referrer:      req.Referrer,
		UserAgent:     c.Request.UserAgent(),
		IPAddress:     clientAddress(c),
	})
	if err != nil {
		logger.WithModule("analytics").Error("record action failed", zap.Error(err))
		response.Error(c, errors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"action_id": id})
}

// GET /api/analytics/report
func (h *AnalyticsHandler) Report(c *gin.Context) {
	days := parseIntQuery(c, "days", 0)

	report, err := h.svc.Report(c.Request.Context(), days)
	if err != nil {
		logger.WithModule("analytics").Error("report failed", zap.Error(err))
		response.Error(c, errors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, report)
}
