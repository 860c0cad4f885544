package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arklim/user-auth-service/internal/core/domain"
	"github.com/arklim/user-auth-service/internal/core/port"
)

var (
	// ErrTokenInvalid covers malformed tokens, bad signatures and unexpected algorithms.
	ErrTokenInvalid = errors.New("jwt: invalid token")
	// ErrTokenExpired indicates a well-formed token past its exp claim.
	ErrTokenExpired = errors.New("jwt: token expired")
)

// TokenLifetime is the fixed validity of every issued session token.
const TokenLifetime = 7 * 24 * time.Hour

// SessionClaims is the wire form of domain.TokenClaims.
type SessionClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	jwt.RegisteredClaims
}

// HMACTokenIssuer signs session tokens with HS256 and a shared secret.
type HMACTokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewHMACTokenIssuer constructs an issuer. now defaults to time.Now.
func NewHMACTokenIssuer(secret string, ttl time.Duration, now func() time.Time) (*HMACTokenIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret must not be empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("jwt: ttl must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &HMACTokenIssuer{secret: []byte(secret), ttl: ttl, now: now}, nil
}

// Issue signs a token for claims. IssuedAt and ExpiresAt are always set by the issuer.
func (i *HMACTokenIssuer) Issue(claims domain.TokenClaims) (string, error) {
	issuedAt := i.now()
	wire := SessionClaims{
		UserID:   claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
		Phone:    claims.Phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, wire).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the embedded claims.
func (i *HMACTokenIssuer) Verify(token string) (*domain.TokenClaims, error) {
	var wire SessionClaims
	parsed, err := jwt.ParseWithClaims(token, &wire, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	return wire.toDomain(), nil
}

// Decode reads the claims without verifying the signature. Only for diagnostics.
func (i *HMACTokenIssuer) Decode(token string) (*domain.TokenClaims, error) {
	var wire SessionClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return wire.toDomain(), nil
}

func (c SessionClaims) toDomain() *domain.TokenClaims {
	claims := &domain.TokenClaims{
		UserID:   c.UserID,
		Username: c.Username,
		Email:    c.Email,
		Phone:    c.Phone,
	}
	if c.IssuedAt != nil {
		claims.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		claims.ExpiresAt = c.ExpiresAt.Time
	}
	return claims
}

var _ port.TokenIssuer = (*HMACTokenIssuer)(nil)
