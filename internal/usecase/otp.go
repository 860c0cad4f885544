package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/user-auth-service/internal/core/domain"
	"github.com/arklim/user-auth-service/internal/core/port"
	"github.com/arklim/user-auth-service/internal/infra/logger"
	"github.com/arklim/user-auth-service/internal/repository"
)

// DefaultOTPTTL is the validity window of a freshly issued code.
const DefaultOTPTTL = 5 * time.Minute

// OTPIssueResult describes a code that was stored and delivered.
type OTPIssueResult struct {
	UserID           string
	ExpiresInMinutes int
	Invalidated      int64
}

// OTPService issues and verifies phone one-time codes.
type OTPService struct {
	users     port.UserRepository
	codes     port.OneTimeCodeRepository
	tx        port.Transactor
	generator port.CodeGenerator
	sender    port.NotificationSender
	tokens    port.TokenIssuer
	clock     port.Clock
	ttl       time.Duration
	logger    *zap.Logger
	metrics   FlowRecorder
	newID     func() string
}

// OTPServiceOption configures optional OTPService dependencies.
type OTPServiceOption func(*OTPService)

// WithOTPTTL overrides the code validity window.
func WithOTPTTL(ttl time.Duration) OTPServiceOption {
	return func(s *OTPService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithOTPMetrics records OTP outcomes.
func WithOTPMetrics(metrics FlowRecorder) OTPServiceOption {
	return func(s *OTPService) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// NewOTPService constructs an OTPService instance.
func NewOTPService(
	users port.UserRepository,
	codes port.OneTimeCodeRepository,
	tx port.Transactor,
	generator port.CodeGenerator,
	sender port.NotificationSender,
	tokens port.TokenIssuer,
	clock port.Clock,
	logger *zap.Logger,
	opts ...OTPServiceOption,
) *OTPService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &OTPService{
		users:     users,
		codes:     codes,
		tx:        tx,
		generator: generator,
		sender:    sender,
		tokens:    tokens,
		clock:     clock,
		ttl:       DefaultOTPTTL,
		logger:    logger,
		metrics:   noopRecorder{},
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// RequestOTP replaces every unused code of the phone's owner with a fresh one and sends it.
// Invalidation, insert and delivery share one transaction; a failed send undoes all of it.
func (s *OTPService) RequestOTP(ctx context.Context, phone string) (result *OTPIssueResult, err error) {
	ctx, span := tracer.Start(ctx, "OTPService.RequestOTP")
	defer span.End()
	defer func() { s.metrics.RecordFlow(FlowOTPRequest, err) }()

	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone number is required", ErrValidation)
	}

	user, err := s.lookupByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	var invalidated int64
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		n, err := s.codes.InvalidateUnused(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("invalidate codes: %w", err)
		}

		code, err := s.generator.NewOTP()
		if err != nil {
			return err
		}

		otp := domain.OneTimeCode{
			ID:        s.newID(),
			UserID:    user.ID,
			Code:      code,
			ExpiresAt: s.clock.UnixFromNow(s.ttl),
			CreatedAt: s.clock.UnixNow(),
		}
		if err := s.codes.Create(ctx, otp); err != nil {
			return fmt.Errorf("store code: %w", err)
		}

		sendErr := s.sender.Send(ctx, domain.Notification{
			Kind:    domain.NotificationOTP,
			UserID:  user.ID,
			Phone:   phone,
			Message: fmt.Sprintf("Your OTP is %s. It expires in %d minutes.", code, s.expiresInMinutes()),
			SentAt:  s.clock.Now(),
		})
		s.metrics.RecordNotification(string(domain.NotificationOTP), sendErr)
		if sendErr != nil {
			return fmt.Errorf("%w: %w", ErrDeliveryFailed, sendErr)
		}

		invalidated = n
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDeliveryFailed) {
			s.logger.Warn("otp delivery failed, code discarded",
				zap.String("user_id", user.ID),
				zap.String("phone", logger.MaskPhone(phone)),
				zap.Error(err),
			)
			return nil, err
		}
		return nil, fmt.Errorf("issue otp: %w", err)
	}

	s.logger.Info("otp issued",
		zap.String("user_id", user.ID),
		zap.String("phone", logger.MaskPhone(phone)),
		zap.Int64("invalidated", invalidated),
	)

	return &OTPIssueResult{
		UserID:           user.ID,
		ExpiresInMinutes: s.expiresInMinutes(),
		Invalidated:      invalidated,
	}, nil
}

// VerifyOTP consumes a matching unused code and logs the user in.
// The code is fetched first and its expiry checked afterwards, so an expired match reports ErrOTPExpired.
func (s *OTPService) VerifyOTP(ctx context.Context, phone, code string) (result *LoginResult, err error) {
	ctx, span := tracer.Start(ctx, "OTPService.VerifyOTP")
	defer span.End()
	defer func() { s.metrics.RecordFlow(FlowOTPVerify, err) }()

	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)
	if phone == "" || code == "" {
		return nil, fmt.Errorf("%w: phone number and otp are required", ErrValidation)
	}

	user, err := s.lookupByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	otp, err := s.codes.FindUnused(ctx, user.ID, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidOrExpiredOTP
		}
		return nil, fmt.Errorf("lookup code: %w", err)
	}

	if s.clock.IsExpired(otp.ExpiresAt) {
		return nil, ErrOTPExpired
	}

	if err := s.codes.MarkUsed(ctx, otp.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// consumed by a concurrent verification
			return nil, ErrInvalidOrExpiredOTP
		}
		return nil, fmt.Errorf("consume code: %w", err)
	}

	token, err := s.tokens.Issue(domain.ClaimsForUser(*user))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("otp verified", zap.String("user_id", user.ID))

	return &LoginResult{
		Token:       token,
		User:        *user,
		MaskedPhone: logger.MaskPhone(user.PhoneValue()),
	}, nil
}

func (s *OTPService) lookupByPhone(ctx context.Context, phone string) (*domain.User, error) {
	user, err := s.users.GetActiveByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user by phone: %w", err)
	}
	return user, nil
}

// expiresInMinutes rounds partial minutes up so a code is never advertised as shorter lived than it is.
func (s *OTPService) expiresInMinutes() int {
	return int((s.ttl + time.Minute - 1) / time.Minute)
}
