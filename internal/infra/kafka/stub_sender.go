package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/user-auth-service/internal/core/domain"
	"github.com/arklim/user-auth-service/internal/core/port"
	"github.com/arklim/user-auth-service/internal/infra/logger"
)

// StubSender logs SMS messages instead of sending them. Used when no brokers are configured.
type StubSender struct {
	logger *zap.Logger
}

// NewStubSender constructs a development-friendly notification sender.
func NewStubSender(logger *zap.Logger) *StubSender {
	return &StubSender{logger: logger}
}

// Send logs the notification. The message body only appears at debug level.
func (s *StubSender) Send(_ context.Context, notification domain.Notification) error {
	at := notification.SentAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	s.logger.Info("Stub SMS sent",
		zap.String("kind", string(notification.Kind)),
		zap.String("user_id", notification.UserID),
		zap.String("phone", logger.MaskPhone(notification.Phone)),
		zap.Time("timestamp", at.UTC()),
	)
	s.logger.Debug("Stub SMS body",
		zap.String("phone", notification.Phone),
		zap.String("message", notification.Message),
	)

	return nil
}

var _ port.NotificationSender = (*StubSender)(nil)
