package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// DefaultTTL is how long (in seconds) the push provider may queue a message
// for an offline client.
const DefaultTTL = 60

// WebPushConfig holds the VAPID credentials used to authenticate against
// push providers.
type WebPushConfig struct {
	Subscriber      string // contact address reported to the push provider
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	TTL             int
}

// WebPushDispatcher delivers messages over the Web Push protocol.
type WebPushDispatcher struct {
	cfg WebPushConfig
}

// NewWebPushDispatcher validates the VAPID configuration and returns a
// ready-to-use dispatcher.
func NewWebPushDispatcher(cfg WebPushConfig) (*WebPushDispatcher, error) {
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		return nil, errors.New("webpush: VAPID key pair is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &WebPushDispatcher{cfg: cfg}, nil
}

// Send implements Dispatcher. Permanent endpoint failures (404/410) surface
// as ErrSubscriptionGone so the caller can deactivate the subscription.
func (d *WebPushDispatcher) Send(ctx context.Context, sub Subscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      d.cfg.Subscriber,
		VAPIDPublicKey:  d.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: d.cfg.VAPIDPrivateKey,
		TTL:             d.cfg.TTL,
	})
	if err != nil {
		return fmt.Errorf("webpush: send: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrSubscriptionGone
	case resp.StatusCode >= 400:
		return fmt.Errorf("webpush: endpoint returned status %d", resp.StatusCode)
	}

	return nil
}
