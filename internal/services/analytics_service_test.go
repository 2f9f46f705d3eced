package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sitepulse/sitepulse/internal/database/testutil"
	"github.com/sitepulse/sitepulse/internal/models"
)

const (
	chromeUA  = "Mozilla/5.0 (Windows NT 10.0) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	firefoxUA = "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0"
	safariUA  = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15) AppleWebKit/605.1.15 Version/17.0 Safari/605.1.15"
)

func newAnalyticsService(t *testing.T) *AnalyticsService {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	svc, err := NewAnalyticsService(db)
	require.NoError(t, err)
	return svc
}

func seedAction(t *testing.T, svc *AnalyticsService, action models.UserAction) {
	t.Helper()
	require.NoError(t, svc.db.Create(&action).Error)
}

func TestRecordActionAssignsIncreasingIDs(t *testing.T) {
	svc := newAnalyticsService(t)
	ctx := context.Background()

	first, err := svc.RecordAction(ctx, RecordActionInput{
		SessionID:  "sess-1",
		ActionType: "page_view",
		PageURL:    "/home",
		UserAgent:  chromeUA,
		IPAddress:  "10.0.0.1",
	})
	require.NoError(t, err)
	require.NotZero(t, first)

	second, err := svc.RecordAction(ctx, RecordActionInput{
		SessionID:  "sess-1",
		ActionType: "click",
		IPAddress:  "10.0.0.1",
	})
	require.NoError(t, err)
	require.Greater(t, second, first)
}

func TestRecordActionDefaultsDetailsToEmptyObject(t *testing.T) {
	svc := newAnalyticsService(t)

	id, err := svc.RecordAction(context.Background(), RecordActionInput{
		SessionID:  "sess-1",
		ActionType: "page_view",
	})
	require.NoError(t, err)

	var stored models.UserAction
	require.NoError(t, svc.db.First(&stored, id).Error)
	require.JSONEq(t, "{}", string(stored.ActionDetails))
}

func TestRecordActionStoresDetails(t *testing.T) {
	svc := newAnalyticsService(t)

	id, err := svc.RecordAction(context.Background(), RecordActionInput{
		SessionID:     "sess-1",
		ActionType:    "click",
		ActionDetails: map[string]any{"target": "signup", "x": float64(12)},
	})
	require.NoError(t, err)

	var stored models.UserAction
	require.NoError(t, svc.db.First(&stored, id).Error)
	require.JSONEq(t, `{"target":"signup","x":12}`, string(stored.ActionDetails))
}

func TestReportSummaryAndActionTypes(t *testing.T) {
	svc := newAnalyticsService(t)
	now := time.Now().UTC()
	svc.clock = func() time.Time { return now }

	seedAction(t, svc, models.UserAction{SessionID: "a", ActionType: "page_view", IPAddress: "1.1.1.1", Timestamp: now.Add(-time.Hour)})
	seedAction(t, svc, models.UserAction{SessionID: "a", ActionType: "page_view", IPAddress: "1.1.1.1", Timestamp: now.Add(-2 * time.Hour)})
	seedAction(t, svc, models.UserAction{SessionID: "b", ActionType: "click", IPAddress: "2.2.2.2", Timestamp: now.Add(-3 * time.Hour)})
	// Older than the 7-day window, must be excluded.
	seedAction(t, svc, models.UserAction{SessionID: "c", ActionType: "page_view", IPAddress: "3.3.3.3", Timestamp: now.AddDate(0, 0, -8)})

	report, err := svc.Report(context.Background(), 0)
	require.NoError(t, err)

	require.Equal(t, DefaultReportWindowDays, report.PeriodDays)
	require.Equal(t, int64(3), report.Summary.TotalActions)
	require.Equal(t, int64(2), report.Summary.UniqueSessions)
	require.Equal(t, int64(2), report.Summary.UniqueVisitors)

	require.Equal(t, []ActionTypeCount{
		{ActionType: "page_view", Count: 2},
		{ActionType: "click", Count: 1},
	}, report.ActionTypes)
}

func TestReportClampsWindow(t *testing.T) {
	require.Equal(t, 7, NormalizeWindowDays(0))
	require.Equal(t, 7, NormalizeWindowDays(-3))
	require.Equal(t, 30, NormalizeWindowDays(30))
	require.Equal(t, 365, NormalizeWindowDays(9999))

	svc := newAnalyticsService(t)
	report, err := svc.Report(context.Background(), 9999)
	require.NoError(t, err)
	require.Equal(t, 365, report.PeriodDays)
}

func TestReportPopularPagesSkipsEmptyURLs(t *testing.T) {
	svc := newAnalyticsService(t)
	now := time.Now().UTC()
	svc.clock = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		seedAction(t, svc, models.UserAction{SessionID: "a", ActionType: "page_view", PageURL: "/home", Timestamp: now.Add(-time.Hour)})
	}
	seedAction(t, svc, models.UserAction{SessionID: "b", ActionType: "page_view", PageURL: "/about", Timestamp: now.Add(-time.Hour)})
	seedAction(t, svc, models.UserAction{SessionID: "b", ActionType: "click", PageURL: "", Timestamp: now.Add(-time.Hour)})

	report, err := svc.Report(context.Background(), 7)
	require.NoError(t, err)

	require.Equal(t, []PageStat{
		{URL: "/home", Visits: 3, UniqueVisits: 1},
		{URL: "/about", Visits: 1, UniqueVisits: 1},
	}, report.PopularPages)
}

func TestReportDailyStats(t *testing.T) {
	svc := newAnalyticsService(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return now }

	on := func(day, hour int) time.Time {
		return time.Date(2026, 8, day, hour, 15, 0, 0, time.UTC)
	}
	// Two sessions from two addresses on the 27th, one on the 26th.
	seedAction(t, svc, models.UserAction{SessionID: "a", ActionType: "page_view", IPAddress: "1.1.1.1", Timestamp: on(27, 9)})
	seedAction(t, svc, models.UserAction{SessionID: "a", ActionType: "click", IPAddress: "1.1.1.1", Timestamp: on(27, 10)})
	seedAction(t, svc, models.UserAction{SessionID: "b", ActionType: "page_view", IPAddress: "2.2.2.2", Timestamp: on(27, 11)})
	seedAction(t, svc, models.UserAction{SessionID: "c", ActionType: "page_view", IPAddress: "3.3.3.3", Timestamp: on(26, 8)})
	// Outside the 7-day window, must not produce a date row.
	seedAction(t, svc, models.UserAction{SessionID: "d", ActionType: "page_view", IPAddress: "4.4.4.4", Timestamp: on(19, 8)})

	report, err := svc.Report(context.Background(), 7)
	require.NoError(t, err)

	require.Equal(t, []DailyStat{
		{Date: "2026-08-27", Actions: 3, Sessions: 2, Visitors: 2},
		{Date: "2026-08-26", Actions: 1, Sessions: 1, Visitors: 1},
	}, report.DailyStats)
}

func TestReportHourlyStats(t *testing.T) {
	svc := newAnalyticsService(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return now }

	at := func(hour int) time.Time {
		return time.Date(2026, 8, 27, hour, 30, 0, 0, time.UTC)
	}
	seedAction(t, svc, models.UserAction{SessionID: "a", ActionType: "page_view", Timestamp: at(9)})
	seedAction(t, svc, models.UserAction{SessionID: "a", ActionType: "page_view", Timestamp: at(9)})
	seedAction(t, svc, models.UserAction{SessionID: "a", ActionType: "page_view", Timestamp: at(15)})

	report, err := svc.Report(context.Background(), 7)
	require.NoError(t, err)

	require.Equal(t, []HourlyStat{
		{Hour: 9, Actions: 2},
		{Hour: 15, Actions: 1},
	}, report.HourlyStats)
}

func TestReportBrowserStats(t *testing.T) {
	svc := newAnalyticsService(t)
	now := time.Now().UTC()
	svc.clock = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		seedAction(t, svc, models.UserAction{SessionID: "a", ActionType: "page_view", UserAgent: chromeUA, Timestamp: now.Add(-time.Hour)})
	}
	seedAction(t, svc, models.UserAction{SessionID: "b", ActionType: "page_view", UserAgent: firefoxUA, Timestamp: now.Add(-time.Hour)})
	seedAction(t, svc, models.UserAction{SessionID: "c", ActionType: "page_view", UserAgent: safariUA, Timestamp: now.Add(-time.Hour)})
	seedAction(t, svc, models.UserAction{SessionID: "d", ActionType: "page_view", UserAgent: "curl/8.0", Timestamp: now.Add(-time.Hour)})

	report, err := svc.Report(context.Background(), 7)
	require.NoError(t, err)

	require.Equal(t, []BrowserStat{
		{Browser: "Chrome", Count: 3},
		{Browser: "Firefox", Count: 1},
		{Browser: "Other", Count: 1},
		{Browser: "Safari", Count: 1},
	}, report.BrowserStats)
}

func TestClassifyBrowser(t *testing.T) {
	require.Equal(t, "Chrome", ClassifyBrowser(chromeUA))
	require.Equal(t, "Firefox", ClassifyBrowser(firefoxUA))
	require.Equal(t, "Safari", ClassifyBrowser(safariUA))
	// Chromium-based Edge carries "Chrome" and is bucketed there.
	require.Equal(t, "Chrome", ClassifyBrowser(chromeUA+" Edg/120.0"))
	require.Equal(t, "Other", ClassifyBrowser("curl/8.0"))
	// Matching is case-sensitive.
	require.Equal(t, "Other", ClassifyBrowser("chrome"))
}
