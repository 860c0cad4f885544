package port

import (
	"context"

	"github.com/arklim/user-auth-service/internal/core/domain"
)

// NotificationSender delivers a message to a phone number. A returned error means
// the message was not accepted; callers do not retry.
type NotificationSender interface {
	Send(ctx context.Context, notification domain.Notification) error
}
