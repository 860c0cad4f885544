package domain

import "time"

// NotificationKind classifies outbound SMS messages.
type NotificationKind string

const (
	NotificationOTP               NotificationKind = "otp"
	NotificationTemporaryPassword NotificationKind = "temporary_password"
	NotificationPasswordReset     NotificationKind = "password_reset_confirmation"
)

// Notification is a single message addressed to a phone number.
type Notification struct {
	Kind    NotificationKind
	UserID  string
	Phone   string
	Message string
	SentAt  time.Time
}
