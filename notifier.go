package activation

import (
	"context"
	"time"
)

// NotificationType enumerates the out-of-band messages the flows emit.
type NotificationType string

const (
	// NotificationMagicLink carries the registration magic link.
	NotificationMagicLink NotificationType = "send-magic-link"
	// NotificationActivationCode carries the login challenge code.
	NotificationActivationCode NotificationType = "send-activation-code"
)

// Notification captures an out-of-band message addressed to a user. Exactly
// one of MagicLink or Code is set, matching the Type.
type Notification struct {
	Type      NotificationType
	Email     string
	MagicLink string
	Code      string
	SentAt    time.Time
}

// Notifier consumes flow notifications. Delivery is fire-and-forget: the
// flows log failures but never propagate them.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	if f == nil {
		return nil
	}
	return f(ctx, n)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Notification) error {
	return nil
}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
