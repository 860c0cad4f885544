package port

import (
	"time"

	"github.com/arklim/user-auth-service/internal/core/domain"
)

// PasswordHasher hashes and verifies secrets using the configured algorithm.
// Verify never fails on a mismatch; it simply reports false.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, encoded string) bool
}

// CodeGenerator produces OTP codes and temporary passwords.
type CodeGenerator interface {
	NewOTP() (string, error)
	TemporaryPassword() (string, error)
}

// TokenIssuer creates and validates signed session tokens.
type TokenIssuer interface {
	Issue(claims domain.TokenClaims) (string, error)
	Verify(token string) (*domain.TokenClaims, error)
	Decode(token string) (*domain.TokenClaims, error)
}

// Clock supplies unix-second timestamps in the service timezone.
type Clock interface {
	Now() time.Time
	UnixNow() int64
	UnixFromNow(d time.Duration) int64
	IsExpired(unix int64) bool
}
