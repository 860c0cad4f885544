package port

import (
	"context"

	"github.com/arklim/user-auth-service/internal/core/domain"
)

// UserRepository exposes persistence behavior for users.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetActiveByIdentifier(ctx context.Context, identifier domain.Identifier) (*domain.User, error)
	GetActiveByPhone(ctx context.Context, phone string) (*domain.User, error)
}

// CredentialRepository manages password hashes stored per user.
type CredentialRepository interface {
	Create(ctx context.Context, credential domain.Credential) error
	GetActiveByUserID(ctx context.Context, userID string) (*domain.Credential, error)
	ExistsForUser(ctx context.Context, userID string) (bool, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string, updatedAt int64) error
}

// OneTimeCodeRepository persists OTP rows.
type OneTimeCodeRepository interface {
	InvalidateUnused(ctx context.Context, userID string) (int64, error)
	Create(ctx context.Context, code domain.OneTimeCode) error
	FindUnused(ctx context.Context, userID, code string) (*domain.OneTimeCode, error)
	MarkUsed(ctx context.Context, id string) error
}

// Transactor runs fn inside a single store transaction. Repositories called with the
// context handed to fn participate in that transaction. A non-nil error from fn rolls back.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
