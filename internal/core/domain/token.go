package domain

import "time"

// TokenClaims is the identity payload carried by a session token.
type TokenClaims struct {
	UserID    string
	Username  string
	Email     string
	Phone     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ClaimsForUser copies the identity fields a token embeds.
func ClaimsForUser(user User) TokenClaims {
	return TokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.EmailValue(),
		Phone:    user.PhoneValue(),
	}
}
