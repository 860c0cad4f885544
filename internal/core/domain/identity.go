package domain

import "strings"

// UserStatus enumerates lifecycle states shared by users, credentials, roles and assignments.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// Gender mirrors the optional profile field stored on users.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// User mirrors the persisted representation in the users table.
// Timestamps are unix seconds produced by the service clock.
type User struct {
	ID            string
	Email         *string
	Phone         *string
	CountryCode   *string
	Username      string
	FirstName     *string
	LastName      *string
	Gender        *Gender
	PhoneVerified bool
	EmailVerified bool
	Status        UserStatus
	CreatedAt     int64
	UpdatedAt     *int64
	CreatedBy     *string
	UpdatedBy     *string
}

// EmailValue returns the email or an empty string.
func (u User) EmailValue() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// PhoneValue returns the phone number or an empty string.
func (u User) PhoneValue() string {
	if u.Phone == nil {
		return ""
	}
	return *u.Phone
}

// Credential holds the password hash for a user. One active row per user in practice.
type Credential struct {
	ID           string
	UserID       string
	PasswordHash string
	Status       UserStatus
	CreatedAt    int64
	UpdatedAt    *int64
	CreatedBy    *string
	UpdatedBy    *string
}

// OneTimeCode is a short-lived numeric code issued for phone based login.
type OneTimeCode struct {
	ID        string
	UserID    string
	Code      string
	ExpiresAt int64
	Used      bool
	CreatedAt int64
}

// IdentifierKind tags which lookup column an Identifier targets.
type IdentifierKind string

const (
	IdentifierUsername IdentifierKind = "username"
	IdentifierEmail    IdentifierKind = "email"
)

// Identifier is either a username or an email, resolved once at the transport boundary.
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

// UsernameIdentifier builds a username identifier.
func UsernameIdentifier(username string) Identifier {
	return Identifier{Kind: IdentifierUsername, Value: strings.TrimSpace(username)}
}

// EmailIdentifier builds an email identifier.
func EmailIdentifier(email string) Identifier {
	return Identifier{Kind: IdentifierEmail, Value: strings.TrimSpace(email)}
}

// ResolveIdentifier prefers the username when both are supplied.
// The second return value is false when neither is present.
func ResolveIdentifier(username, email string) (Identifier, bool) {
	if u := strings.TrimSpace(username); u != "" {
		return UsernameIdentifier(u), true
	}
	if e := strings.TrimSpace(email); e != "" {
		return EmailIdentifier(e), true
	}
	return Identifier{}, false
}

// IsZero reports whether the identifier carries no value.
func (i Identifier) IsZero() bool {
	return strings.TrimSpace(i.Value) == "" || (i.Kind != IdentifierUsername && i.Kind != IdentifierEmail)
}
