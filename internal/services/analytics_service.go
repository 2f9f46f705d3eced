package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sitepulse/sitepulse/internal/models"
	"github.com/sitepulse/sitepulse/pkg/metrics"
)

const (
	// DefaultReportWindowDays is used when the caller does not supply a window.
	DefaultReportWindowDays = 7
	// MaxReportWindowDays bounds the trailing window so a single request
	// cannot force a scan over the whole event history.
	MaxReportWindowDays = 365

	popularPagesLimit = 10
)

// RecordActionInput carries one user action to persist. All body-derived
// fields are optional; UserAgent and IPAddress come from request headers.
type RecordActionInput struct {
	SessionID     string
	ActionType    string
	ActionDetails map[string]any
	PageURL       string
	Referrer      string
	UserAgent     string
	IPAddress     string
}

// Summary is the report header: totals across the whole window.
type Summary struct {
	TotalActions   int64 `json:"total_actions"`
	UniqueSessions int64 `json:"unique_sessions"`
	UniqueVisitors int64 `json:"unique_visitors"`
}

// ActionTypeCount is one row of the per-action-type breakdown.
type ActionTypeCount struct {
	ActionType string `json:"action_type"`
	Count      int64  `json:"count"`
}

// DailyStat aggregates one calendar date inside the window.
type DailyStat struct {
	Date     string `json:"date"`
	Actions  int64  `json:"actions"`
	Sessions int64  `json:"sessions"`
	Visitors int64  `json:"visitors"`
}

// PageStat is one row of the popular-pages ranking.
type PageStat struct {
	URL          string `json:"url"`
	Visits       int64  `json:"visits"`
	UniqueVisits int64  `json:"unique_visits"`
}

// HourlyStat aggregates actions by hour of day (0-23).
type HourlyStat struct {
	Hour    int   `json:"hour"`
	Actions int64 `json:"actions"`
}

// BrowserStat is one row of the browser breakdown.
type BrowserStat struct {
	Browser string `json:"browser"`
	Count   int64  `json:"count"`
}

// Report bundles all aggregate sections for one trailing window.
type Report struct {
	PeriodDays   int               `json:"period_days"`
	Summary      Summary           `json:"summary"`
	ActionTypes  []ActionTypeCount `json:"action_types"`
	DailyStats   []DailyStat       `json:"daily_stats"`
	PopularPages []PageStat        `json:"popular_pages"`
	HourlyStats  []HourlyStat      `json:"hourly_stats"`
	BrowserStats []BrowserStat     `json:"browser_stats"`
}

// AnalyticsService records user actions and computes aggregate reports.
// Every report call recomputes from the live event table; there is no cache.
type AnalyticsService struct {
	db    *gorm.DB
	clock func() time.Time
}

// NewAnalyticsService constructs an AnalyticsService.
func NewAnalyticsService(db *gorm.DB) (*AnalyticsService, error) {
	if db == nil {
		return nil, errors.New("analytics service: db is required")
	}
	return &AnalyticsService{db: db, clock: time.Now}, nil
}

// RecordAction persists one event and returns its assigned id. IDs are
// auto-incremented by the store, so they strictly increase for a single writer.
func (s *AnalyticsService) RecordAction(ctx context.Context, input RecordActionInput) (uint64, error) {
	details := input.ActionDetails
	if details == nil {
		details = map[string]any{}
	}

	raw, err := json.Marshal(details)
	if err != nil {
		return 0, fmt.Errorf("analytics service: encode action details: %w", err)
	}

	action := models.UserAction{
		SessionID:     input.SessionID,
		ActionType:    input.ActionType,
		ActionDetails: datatypes.JSON(raw),
		PageURL:       input.PageURL,
		Referrer:      input.Referrer,
		UserAgent:     input.UserAgent,
		IPAddress:     input.IPAddress,
	}

	if err := s.db.WithContext(ctx).Create(&action).Error; err != nil {
		return 0, fmt.Errorf("analytics service: insert action: %w", err)
	}

	metrics.ActionsRecorded.WithLabelValues(action.ActionType).Inc()
	return action.ID, nil
}

// Report computes all six aggregate sections over the trailing window.
func (s *AnalyticsService) Report(ctx context.Context, days int) (*Report, error) {
	days = NormalizeWindowDays(days)
	cutoff := s.clock().AddDate(0, 0, -days)

	report := &Report{PeriodDays: days}

	if err := s.windowed(ctx, cutoff).
		Select("COUNT(*) AS total_actions, COUNT(DISTINCT session_id) AS unique_sessions, COUNT(DISTINCT ip_address) AS unique_visitors").
		Scan(&report.Summary).Error; err != nil {
		return nil, fmt.Errorf("analytics service: summary: %w", err)
	}

	if err := s.windowed(ctx, cutoff).
		Select("action_type, COUNT(*) AS count").
		Group("action_type").
		Order("count DESC").
		Scan(&report.ActionTypes).Error; err != nil {
		return nil, fmt.Errorf("analytics service: action types: %w", err)
	}

	dateExpr := s.dateExpr()
	if err := s.windowed(ctx, cutoff).
		Select(dateExpr + " AS date, COUNT(*) AS actions, COUNT(DISTINCT session_id) AS sessions, COUNT(DISTINCT ip_address) AS visitors").
		Group(dateExpr).
		Order("date DESC").
		Scan(&report.DailyStats).Error; err != nil {
		return nil, fmt.Errorf("analytics service: daily stats: %w", err)
	}

	if err := s.windowed(ctx, cutoff).
		Where("page_url IS NOT NULL AND page_url <> ''").
		Select("page_url AS url, COUNT(*) AS visits, COUNT(DISTINCT session_id) AS unique_visits").
		Group("page_url").
		Order("visits DESC").
		Limit(popularPagesLimit).
		Scan(&report.PopularPages).Error; err != nil {
		return nil, fmt.Errorf("analytics service: popular pages: %w", err)
	}

	hourExpr := s.hourExpr()
	if err := s.windowed(ctx, cutoff).
		Select(hourExpr + " AS hour, COUNT(*) AS actions").
		Group(hourExpr).
		Order("hour ASC").
		Scan(&report.HourlyStats).Error; err != nil {
		return nil, fmt.Errorf("analytics service: hourly stats: %w", err)
	}

	browsers, err := s.browserStats(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	report.BrowserStats = browsers

	return report, nil
}

// NormalizeWindowDays applies the default and clamps the trailing window.
func NormalizeWindowDays(days int) int {
	if days <= 0 {
		return DefaultReportWindowDays
	}
	if days > MaxReportWindowDays {
		return MaxReportWindowDays
	}
	return days
}

func (s *AnalyticsService) windowed(ctx context.Context, cutoff time.Time) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.UserAction{}).
		Where("timestamp >= ?", cutoff)
}

// dateExpr returns the SQL expression extracting the calendar date of an
// event for the connected dialect.
func (s *AnalyticsService) dateExpr() string {
	if s.db.Dialector.Name() == "sqlite" {
		return "date(timestamp)"
	}
	return "DATE(timestamp)"
}

// hourExpr returns the SQL expression extracting the hour of day (0-23).
func (s *AnalyticsService) hourExpr() string {
	switch s.db.Dialector.Name() {
	case "sqlite":
		return "CAST(strftime('%H', timestamp) AS INTEGER)"
	case "mysql":
		return "HOUR(timestamp)"
	default:
		return "CAST(EXTRACT(HOUR FROM timestamp) AS INTEGER)"
	}
}

// browserStats classifies user agents in Go rather than SQL so the substring
// matching stays case-sensitive across dialects (SQLite's LIKE is not).
func (s *AnalyticsService) browserStats(ctx context.Context, cutoff time.Time) ([]BrowserStat, error) {
	var rows []struct {
		UserAgent string
		Count     int64
	}

	if err := s.windowed(ctx, cutoff).
		Where("user_agent IS NOT NULL").
		Select("user_agent, COUNT(*) AS count").
		Group("user_agent").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("analytics service: browser stats: %w", err)
	}

	totals := make(map[string]int64)
	for _, row := range rows {
		totals[ClassifyBrowser(row.UserAgent)] += row.Count
	}

	stats := make([]BrowserStat, 0, len(totals))
	for browser, count := range totals {
		stats = append(stats, BrowserStat{Browser: browser, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Browser < stats[j].Browser
	})

	return stats, nil
}

// ClassifyBrowser buckets a user agent by substring match. The order
// matters: Chromium-based agents advertise both "Chrome" and "Safari", and
// modern Edge advertises "Chrome" too, so the first match wins.
func ClassifyBrowser(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Chrome"):
		return "Chrome"
	case strings.Contains(userAgent, "Firefox"):
		return "Firefox"
	case strings.Contains(userAgent, "Safari"):
		return "Safari"
	case strings.Contains(userAgent, "Edge"):
		return "Edge"
	default:
		return "Other"
	}
}
