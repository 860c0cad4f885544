package usecase

import "errors"

var (
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrUserNotFound indicates no active user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials indicates the identifier or password are incorrect. Both cases share this error.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidOrExpiredOTP indicates no unused code matches the supplied value.
	ErrInvalidOrExpiredOTP = errors.New("invalid or expired otp")
	// ErrOTPExpired indicates the matching code is past its expiry.
	ErrOTPExpired = errors.New("otp expired")
	// ErrDeliveryFailed indicates the SMS was not accepted and the transaction was rolled back.
	ErrDeliveryFailed = errors.New("notification delivery failed")
	// ErrConfirmationFailed indicates the reset confirmation was not accepted and the password change was rolled back.
	ErrConfirmationFailed = errors.New("password reset confirmation failed")
	// ErrConflict indicates a unique field already exists.
	ErrConflict = errors.New("conflict")
	// ErrInvalidAccessToken indicates the provided access token is malformed or signature validation failed.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrExpiredAccessToken indicates the provided access token has expired.
	ErrExpiredAccessToken = errors.New("access token expired")
)
