package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// UserSummary is the public view of a user. Phone is always masked.
type UserSummary struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email"`
	Phone    string  `json:"phone"`
}

// LoginRequest identifies the user by username or email. Username wins when both are set.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful password login.
type LoginResponse struct {
	Message string      `json:"message"`
	UserID  string      `json:"userId"`
	Token   string      `json:"token"`
	User    UserSummary `json:"user"`
}

// PhoneRequest carries the phone number an OTP is issued for.
type PhoneRequest struct {
	Phone string `json:"phone"`
}

// OTPIssueResponse is returned once a code has been stored and sent.
type OTPIssueResponse struct {
	Message          string `json:"message"`
	UserID           string `json:"userId"`
	ExpiresInMinutes int    `json:"expiresInMinutes"`
	Note             string `json:"note,omitempty"`
}

// VerifyOTPRequest pairs a phone number with the code received by SMS.
type VerifyOTPRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

// VerifyOTPResponse is returned by a successful OTP login.
type VerifyOTPResponse struct {
	Message    string      `json:"message"`
	UserID     string      `json:"userId"`
	Token      string      `json:"token"`
	IsVerified bool        `json:"isVerified"`
	User       UserSummary `json:"user"`
}

// ForgotPasswordRequest identifies the account that receives a temporary password.
type ForgotPasswordRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ResetPasswordRequest sets a new password for the identified account.
type ResetPasswordRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

// PasswordResponse is shared by the forgot and reset password endpoints.
type PasswordResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
	Phone   string `json:"phone"`
	Note    string `json:"note"`
}

// MeResponse echoes the claims of a verified bearer token.
type MeResponse struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
