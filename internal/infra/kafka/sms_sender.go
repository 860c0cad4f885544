package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/arklim/user-auth-service/internal/core/domain"
	"github.com/arklim/user-auth-service/internal/core/port"
	"github.com/arklim/user-auth-service/internal/infra/config"
)

const schemaVersion = "1.0"

// SMSSender implements port.NotificationSender by publishing SMS requests to Kafka.
// A downstream gateway consumes the topic and performs the actual delivery.
type SMSSender struct {
	producer *Producer
	topic    string
	appCfg   config.AppSettings
}

// NewSMSSender constructs a Kafka-backed notification sender.
func NewSMSSender(producer *Producer, topic string, appCfg config.AppSettings) *SMSSender {
	return &SMSSender{producer: producer, topic: topic, appCfg: appCfg}
}

type smsEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   smsPayload        `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type smsPayload struct {
	Kind    string `json:"kind"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Send publishes the notification and returns once the broker accepts it.
func (s *SMSSender) Send(ctx context.Context, notification domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ts := notification.SentAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	metadata := map[string]string{
		"service":     s.appCfg.Name,
		"environment": s.appCfg.Env,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		metadata["trace_id"] = sc.TraceID().String()
	}

	envelope := smsEnvelope{
		EventID:   uuid.NewString(),
		EventType: "sms." + string(notification.Kind),
		UserID:    notification.UserID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload: smsPayload{
			Kind:    string(notification.Kind),
			Phone:   notification.Phone,
			Message: notification.Message,
		},
		Metadata: metadata,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal sms envelope: %w", err)
	}

	key := notification.UserID
	if key == "" {
		key = notification.Phone
	}

	return s.producer.Send(s.topic, key, body)
}

var _ port.NotificationSender = (*SMSSender)(nil)
