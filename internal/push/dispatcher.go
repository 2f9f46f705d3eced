package push

import (
	"context"
	"errors"
)

// ErrSubscriptionGone reports that the push provider considers the
// subscription permanently dead (the browser unsubscribed or the endpoint
// expired). Callers should deactivate the subscription and stop retrying.
var ErrSubscriptionGone = errors.New("push: subscription gone")

// Subscription carries the endpoint and client key material needed to
// encrypt and deliver one Web Push message.
type Subscription struct {
	Endpoint string
	P256DH   string
	Auth     string
}

// Dispatcher delivers an encrypted payload to a single subscription.
// Delivery is best effort; bookkeeping of outcomes is the caller's job.
type Dispatcher interface {
	Send(ctx context.Context, sub Subscription, payload []byte) error
}

// NoopDispatcher accepts every message without contacting any push provider.
// It is wired in when no VAPID keys are configured, which keeps the
// subscription and notification bookkeeping fully functional.
type NoopDispatcher struct{}

// Send implements Dispatcher and always reports success.
func (NoopDispatcher) Send(context.Context, Subscription, []byte) error {
	return nil
}
