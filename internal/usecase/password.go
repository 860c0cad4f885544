package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/user-auth-service/internal/core/domain"
	"github.com/arklim/user-auth-service/internal/core/port"
	"github.com/arklim/user-auth-service/internal/infra/logger"
	"github.com/arklim/user-auth-service/internal/repository"
)

const passwordResetConfirmation = "Your password has been successfully reset for your account."

// PasswordResult describes a completed forgot or reset flow.
type PasswordResult struct {
	UserID      string
	MaskedPhone string
}

// PasswordService replaces stored passwords and notifies the owner by SMS.
type PasswordService struct {
	users       port.UserRepository
	credentials port.CredentialRepository
	tx          port.Transactor
	generator   port.CodeGenerator
	hasher      port.PasswordHasher
	sender      port.NotificationSender
	clock       port.Clock
	logger      *zap.Logger
	metrics     FlowRecorder
	newID       func() string
}

// PasswordServiceOption configures optional PasswordService dependencies.
type PasswordServiceOption func(*PasswordService)

// WithPasswordMetrics records password flow outcomes.
func WithPasswordMetrics(metrics FlowRecorder) PasswordServiceOption {
	return func(s *PasswordService) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// NewPasswordService constructs a PasswordService instance.
func NewPasswordService(
	users port.UserRepository,
	credentials port.CredentialRepository,
	tx port.Transactor,
	generator port.CodeGenerator,
	hasher port.PasswordHasher,
	sender port.NotificationSender,
	clock port.Clock,
	logger *zap.Logger,
	opts ...PasswordServiceOption,
) *PasswordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &PasswordService{
		users:       users,
		credentials: credentials,
		tx:          tx,
		generator:   generator,
		hasher:      hasher,
		sender:      sender,
		clock:       clock,
		logger:      logger,
		metrics:     noopRecorder{},
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ForgotPassword sets a random temporary password and sends it to the registered phone.
// If the SMS is not accepted the old password stays valid.
func (s *PasswordService) ForgotPassword(ctx context.Context, identifier domain.Identifier) (result *PasswordResult, err error) {
	ctx, span := tracer.Start(ctx, "PasswordService.ForgotPassword")
	defer span.End()
	defer func() { s.metrics.RecordFlow(FlowForgotPassword, err) }()

	if identifier.IsZero() {
		return nil, fmt.Errorf("%w: username or email is required", ErrValidation)
	}

	user, err := s.lookup(ctx, identifier)
	if err != nil {
		return nil, err
	}
	phone := user.PhoneValue()
	if phone == "" {
		return nil, fmt.Errorf("%w: no registered phone", ErrDeliveryFailed)
	}

	temporary, err := s.generator.TemporaryPassword()
	if err != nil {
		return nil, err
	}

	err = s.replacePassword(ctx, user, temporary, domain.Notification{
		Kind:    domain.NotificationTemporaryPassword,
		UserID:  user.ID,
		Phone:   phone,
		Message: "Your new password is: " + temporary,
	}, ErrDeliveryFailed)
	if err != nil {
		return nil, err
	}

	s.logger.Info("temporary password issued",
		zap.String("user_id", user.ID),
		zap.String("phone", logger.MaskPhone(phone)),
	)

	return &PasswordResult{UserID: user.ID, MaskedPhone: logger.MaskPhone(phone)}, nil
}

// ResetPassword stores newPassword and sends a confirmation. A confirmation that is not
// accepted rolls the password back and yields ErrConfirmationFailed.
func (s *PasswordService) ResetPassword(ctx context.Context, identifier domain.Identifier, newPassword string) (result *PasswordResult, err error) {
	ctx, span := tracer.Start(ctx, "PasswordService.ResetPassword")
	defer span.End()
	defer func() { s.metrics.RecordFlow(FlowResetPassword, err) }()

	if identifier.IsZero() || newPassword == "" {
		return nil, fmt.Errorf("%w: username or email, and new password are required", ErrValidation)
	}

	user, err := s.lookup(ctx, identifier)
	if err != nil {
		return nil, err
	}
	phone := user.PhoneValue()
	if phone == "" {
		return nil, fmt.Errorf("%w: no registered phone", ErrConfirmationFailed)
	}

	err = s.replacePassword(ctx, user, newPassword, domain.Notification{
		Kind:    domain.NotificationPasswordReset,
		UserID:  user.ID,
		Phone:   phone,
		Message: passwordResetConfirmation,
	}, ErrConfirmationFailed)
	if err != nil {
		return nil, err
	}

	s.logger.Info("password reset", zap.String("user_id", user.ID))

	return &PasswordResult{UserID: user.ID, MaskedPhone: logger.MaskPhone(phone)}, nil
}

// replacePassword hashes password, writes it and sends notification inside one transaction.
// A user without an active credential gets a new one.
func (s *PasswordService) replacePassword(ctx context.Context, user *domain.User, password string, notification domain.Notification, sendFailure error) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		now := s.clock.UnixNow()
		err := s.credentials.UpdatePassword(ctx, user.ID, hash, now)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			if err := s.credentials.Create(ctx, domain.Credential{
				ID:           s.newID(),
				UserID:       user.ID,
				PasswordHash: hash,
				Status:       domain.UserStatusActive,
				CreatedAt:    now,
			}); err != nil {
				return fmt.Errorf("create credential: %w", err)
			}
		case err != nil:
			return fmt.Errorf("update credential: %w", err)
		}

		notification.SentAt = s.clock.Now()
		sendErr := s.sender.Send(ctx, notification)
		s.metrics.RecordNotification(string(notification.Kind), sendErr)
		if sendErr != nil {
			return fmt.Errorf("%w: %w", sendFailure, sendErr)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, sendFailure) {
			s.logger.Warn("password notification failed, change rolled back",
				zap.String("user_id", user.ID),
				zap.String("kind", string(notification.Kind)),
				zap.Error(err),
			)
			return err
		}
		return fmt.Errorf("replace password: %w", err)
	}
	return nil
}

func (s *PasswordService) lookup(ctx context.Context, identifier domain.Identifier) (*domain.User, error) {
	user, err := s.users.GetActiveByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}
