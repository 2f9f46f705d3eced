package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sitepulse/sitepulse/internal/models"
	"github.com/sitepulse/sitepulse/internal/push"
	"github.com/sitepulse/sitepulse/pkg/logger"
	"github.com/sitepulse/sitepulse/pkg/metrics"
)

const (
	defaultNotificationTitle = "Notification"
	defaultNotificationIcon  = "/favicon.ico"
	defaultNotificationBadge = "/favicon.ico"

	recentNotificationsLimit = 10
)

// SubscribeInput carries one browser push subscription. Endpoint is the
// identity: re-subscribing with a known endpoint refreshes the existing row.
type SubscribeInput struct {
	Endpoint  string
	P256DH    string
	Auth      string
	UserAgent string
	IPAddress string
}

// SendInput describes one notification to dispatch to all active subscribers.
type SendInput struct {
	Title string
	Body  string
	Icon  string
	Badge string
	Tag   string
	Data  map[string]any
}

// SendResult reports dispatch bookkeeping for one notification.
type SendResult struct {
	NotificationID uint64 `json:"notification_id,omitempty"`
	Sent           int64  `json:"sent"`
	Succeeded      int64  `json:"succeeded"`
}

// NotificationSummary is one row of the recent-notifications listing.
type NotificationSummary struct {
	ID           uint64    `json:"id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	SentCount    int64     `json:"sent_count"`
	SuccessCount int64     `json:"success_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// NotificationTotals aggregates dispatch bookkeeping over the stats window.
type NotificationTotals struct {
	Notifications int64 `json:"notifications"`
	Sent          int64 `json:"sent"`
	Succeeded     int64 `json:"succeeded"`
}

// PushStats summarises subscription health and recent dispatch history.
type PushStats struct {
	PeriodDays          int                   `json:"period_days"`
	ActiveSubscriptions int64                 `json:"active_subscriptions"`
	Totals              NotificationTotals    `json:"totals"`
	SuccessRate         float64               `json:"success_rate"`
	Recent              []NotificationSummary `json:"recent_notifications"`
}

// PushService manages subscriptions and fans notifications out through a
// Dispatcher. Delivery failures are bookkeeping, not errors: a send succeeds
// as long as the notification row was written.
type PushService struct {
	db         *gorm.DB
	dispatcher push.Dispatcher
	clock      func() time.Time
}

// NewPushService constructs a PushService.
func NewPushService(db *gorm.DB, dispatcher push.Dispatcher) (*PushService, error) {
	if db == nil {
		return nil, errors.New("push service: db is required")
	}
	if dispatcher == nil {
		return nil, errors.New("push service: dispatcher is required")
	}
	return &PushService{db: db, dispatcher: dispatcher, clock: time.Now}, nil
}

// Subscribe registers a browser subscription, reactivating and refreshing
// the stored keys when the endpoint is already known.
func (s *PushService) Subscribe(ctx context.Context, input SubscribeInput) (*models.PushSubscription, error) {
	var sub models.PushSubscription
	err := s.db.WithContext(ctx).Where("endpoint = ?", input.Endpoint).Take(&sub).Error
	switch {
	case err == nil:
		updates := map[string]any{
			"p256dh":     input.P256DH,
			"auth":       input.Auth,
			"user_agent": input.UserAgent,
			"ip_address": input.IPAddress,
			"is_active":  true,
			"last_used":  s.clock(),
		}
		if err := s.db.WithContext(ctx).Model(&sub).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("push service: refresh subscription: %w", err)
		}
		return &sub, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub = models.PushSubscription{
			Endpoint:  input.Endpoint,
			P256DH:    input.P256DH,
			Auth:      input.Auth,
			UserAgent: input.UserAgent,
			IPAddress: input.IPAddress,
			IsActive:  true,
		}
		if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
			return nil, fmt.Errorf("push service: create subscription: %w", err)
		}
		return &sub, nil
	default:
		return nil, fmt.Errorf("push service: lookup subscription: %w", err)
	}
}

// Send dispatches a notification to every active subscription. When no
// active subscription exists nothing is recorded and the result is all
// zeroes. Endpoints rejected as gone by the push provider are deactivated.
func (s *PushService) Send(ctx context.Context, input SendInput) (*SendResult, error) {
	var subs []models.PushSubscription
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("push service: list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return &SendResult{}, nil
	}

	notification, payload, err := s.buildNotification(input)
	if err != nil {
		return nil, err
	}

	notification.SentCount = int64(len(subs))
	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, fmt.Errorf("push service: record notification: %w", err)
	}

	log := logger.WithModule("push")
	var succeeded int64
	for i := range subs {
		sub := &subs[i]
		err := s.dispatcher.Send(ctx, push.Subscription{
			Endpoint: sub.Endpoint,
			P256DH:   sub.P256DH,
			Auth:     sub.Auth,
		}, payload)
		switch {
		case err == nil:
			succeeded++
			metrics.PushDeliveries.WithLabelValues("success").Inc()
		case errors.Is(err, push.ErrSubscriptionGone):
			metrics.PushDeliveries.WithLabelValues("gone").Inc()
			if err := s.db.WithContext(ctx).Model(sub).Update("is_active", false).Error; err != nil {
				log.Warn("failed to deactivate gone subscription",
					zap.Uint64("subscription_id", sub.ID), zap.Error(err))
			}
		default:
			metrics.PushDeliveries.WithLabelValues("failure").Inc()
			log.Warn("push delivery failed",
				zap.Uint64("subscription_id", sub.ID), zap.Error(err))
		}
	}

	if err := s.db.WithContext(ctx).Model(notification).
		Update("success_count", succeeded).Error; err != nil {
		return nil, fmt.Errorf("push service: record delivery outcome: %w", err)
	}

	return &SendResult{
		NotificationID: notification.ID,
		Sent:           notification.SentCount,
		Succeeded:      succeeded,
	}, nil
}

func (s *PushService) buildNotification(input SendInput) (*models.PushNotification, []byte, error) {
	title := input.Title
	if title == "" {
		title = defaultNotificationTitle
	}
	icon := input.Icon
	if icon == "" {
		icon = defaultNotificationIcon
	}
	badge := input.Badge
	if badge == "" {
		badge = defaultNotificationBadge
	}

	data := input.Data
	if data == nil {
		data = map[string]any{}
	}
	rawData, err := json.Marshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("push service: encode data: %w", err)
	}

	notification := &models.PushNotification{
		Title: title,
		Body:  input.Body,
		Icon:  icon,
		Badge: badge,
		Tag:   input.Tag,
		Data:  datatypes.JSON(rawData),
	}

	payload, err := json.Marshal(map[string]any{
		"title": title,
		"body":  input.Body,
		"icon":  icon,
		"badge": badge,
		"tag":   input.Tag,
		"data":  data,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("push service: encode payload: %w", err)
	}

	return notification, payload, nil
}

// Stats reports dispatch totals, the average per-notification success rate
// as a percentage, the active subscription count and the most recent
// notifications. Notification aggregates are scoped to the trailing window;
// the subscription count is global.
func (s *PushService) Stats(ctx context.Context, days int) (*PushStats, error) {
	days = NormalizeWindowDays(days)
	cutoff := s.clock().AddDate(0, 0, -days)

	stats := &PushStats{PeriodDays: days, Recent: []NotificationSummary{}}

	if err := s.db.WithContext(ctx).
		Model(&models.PushSubscription{}).
		Where("is_active = ?", true).
		Count(&stats.ActiveSubscriptions).Error; err != nil {
		return nil, fmt.Errorf("push service: count subscriptions: %w", err)
	}

	windowed := func() *gorm.DB {
		return s.db.WithContext(ctx).
			Model(&models.PushNotification{}).
			Where("created_at >= ?", cutoff)
	}

	var totals struct {
		Notifications int64
		Sent          sql.NullInt64
		Succeeded     sql.NullInt64
	}
	if err := windowed().
		Select("COUNT(*) AS notifications, SUM(sent_count) AS sent, SUM(success_count) AS succeeded").
		Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("push service: totals: %w", err)
	}
	stats.Totals = NotificationTotals{
		Notifications: totals.Notifications,
		Sent:          totals.Sent.Int64,
		Succeeded:     totals.Succeeded.Int64,
	}

	// Averages the per-notification delivery ratio over notifications that
	// reached at least one subscriber; NULLIF drops zero-send rows from the
	// average entirely, and a window with only such rows reports 0.
	var rate sql.NullFloat64
	if err := windowed().
		Select("AVG(1.0 * success_count / NULLIF(sent_count, 0))").
		Scan(&rate).Error; err != nil {
		return nil, fmt.Errorf("push service: success rate: %w", err)
	}
	if rate.Valid {
		stats.SuccessRate = math.Round(rate.Float64*1000) / 10
	}

	if err := windowed().
		Order("created_at DESC, id DESC").
		Limit(recentNotificationsLimit).
		Scan(&stats.Recent).Error; err != nil {
		return nil, fmt.Errorf("push service: recent notifications: %w", err)
	}

	return stats, nil
}
