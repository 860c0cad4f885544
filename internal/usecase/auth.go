package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/arklim/user-auth-service/internal/core/domain"
	"github.com/arklim/user-auth-service/internal/core/port"
	"github.com/arklim/user-auth-service/internal/infra/logger"
	"github.com/arklim/user-auth-service/internal/infra/security"
	"github.com/arklim/user-auth-service/internal/repository"
)

// LoginResult is returned by a successful password or OTP login.
type LoginResult struct {
	Token       string
	User        domain.User
	MaskedPhone string
}

// AuthService handles password login and bearer token checks.
type AuthService struct {
	users       port.UserRepository
	credentials port.CredentialRepository
	hasher      port.PasswordHasher
	tokens      port.TokenIssuer
	logger      *zap.Logger
	metrics     FlowRecorder
}

// AuthServiceOption configures optional AuthService dependencies.
type AuthServiceOption func(*AuthService)

// WithAuthMetrics records login outcomes.
func WithAuthMetrics(metrics FlowRecorder) AuthServiceOption {
	return func(s *AuthService) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	users port.UserRepository,
	credentials port.CredentialRepository,
	hasher port.PasswordHasher,
	tokens port.TokenIssuer,
	logger *zap.Logger,
	opts ...AuthServiceOption,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AuthService{
		users:       users,
		credentials: credentials,
		hasher:      hasher,
		tokens:      tokens,
		logger:      logger,
		metrics:     noopRecorder{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Login authenticates identifier and password. Unknown users, missing credentials and wrong
// passwords all yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, identifier domain.Identifier, password string) (result *LoginResult, err error) {
	ctx, span := tracer.Start(ctx, "AuthService.Login")
	defer span.End()
	defer func() { s.metrics.RecordFlow(FlowLogin, err) }()

	if identifier.IsZero() {
		return nil, fmt.Errorf("%w: username or email is required", ErrValidation)
	}
	span.SetAttributes(attribute.String("auth.identifier_kind", string(identifier.Kind)))

	user, err := s.users.GetActiveByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	credential, err := s.credentials.GetActiveByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup credential: %w", err)
	}

	if !s.hasher.Verify(password, credential.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(domain.ClaimsForUser(*user))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user logged in",
		zap.String("user_id", user.ID),
		zap.String("identifier_kind", string(identifier.Kind)),
	)

	return &LoginResult{
		Token:       token,
		User:        *user,
		MaskedPhone: logger.MaskPhone(user.PhoneValue()),
	}, nil
}

// VerifyToken validates a bearer token and returns its claims.
func (s *AuthService) VerifyToken(_ context.Context, token string) (*domain.TokenClaims, error) {
	if token == "" {
		return nil, ErrInvalidAccessToken
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return nil, ErrExpiredAccessToken
		}
		return nil, ErrInvalidAccessToken
	}

	return claims, nil
}

// DecodeToken reads claims without checking the signature. The result must not drive authorization.
func (s *AuthService) DecodeToken(token string) (*domain.TokenClaims, error) {
	claims, err := s.tokens.Decode(token)
	if err != nil {
		return nil, ErrInvalidAccessToken
	}
	return claims, nil
}
