package usecase

import "go.opentelemetry.io/otel"

const instrumentationName = "github.com/arklim/user-auth-service/internal/usecase"

var tracer = otel.Tracer(instrumentationName)

// Flow names reported to the FlowRecorder.
const (
	FlowLogin          = "login"
	FlowOTPRequest     = "otp_request"
	FlowOTPVerify      = "otp_verify"
	FlowForgotPassword = "forgot_password"
	FlowResetPassword  = "reset_password"
)

// FlowRecorder receives one call per completed flow and per delivery attempt.
type FlowRecorder interface {
	RecordFlow(flow string, err error)
	RecordNotification(kind string, err error)
}

type noopRecorder struct{}

func (noopRecorder) RecordFlow(string, error)         {}
func (noopRecorder) RecordNotification(string, error) {}
