package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arklim/user-auth-service/internal/core/domain"
	"github.com/arklim/user-auth-service/internal/infra/logger"
	"github.com/arklim/user-auth-service/internal/transport/http/middleware"
	"github.com/arklim/user-auth-service/internal/usecase"
)

// PasswordAuthenticator performs identifier and password login.
type PasswordAuthenticator interface {
	Login(ctx context.Context, identifier domain.Identifier, password string) (*usecase.LoginResult, error)
}

// OTPAuthenticator issues and verifies phone one-time codes.
type OTPAuthenticator interface {
	RequestOTP(ctx context.Context, phone string) (*usecase.OTPIssueResult, error)
	VerifyOTP(ctx context.Context, phone, code string) (*usecase.LoginResult, error)
}

// PasswordRecovery replaces forgotten passwords.
type PasswordRecovery interface {
	ForgotPassword(ctx context.Context, identifier domain.Identifier) (*usecase.PasswordResult, error)
	ResetPassword(ctx context.Context, identifier domain.Identifier, newPassword string) (*usecase.PasswordResult, error)
}

var (
	loginErrors = []ErrorCase{
		{Err: usecase.ErrValidation, Status: http.StatusBadRequest, Message: "Username or email is required"},
		{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "Invalid credentials"},
	}
	otpIssueErrors = []ErrorCase{
		{Err: usecase.ErrValidation, Status: http.StatusBadRequest, Message: "Phone number is required"},
		{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "User not found with this phone number"},
		{Err: usecase.ErrDeliveryFailed, Status: http.StatusInternalServerError, Message: "Failed to send OTP"},
	}
	otpVerifyErrors = []ErrorCase{
		{Err: usecase.ErrValidation, Status: http.StatusBadRequest, Message: "Phone number and OTP are required"},
		{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "User not found with this phone number"},
		{Err: usecase.ErrInvalidOrExpiredOTP, Status: http.StatusUnauthorized, Message: "Invalid or expired OTP"},
		{Err: usecase.ErrOTPExpired, Status: http.StatusUnauthorized, Message: "OTP expired"},
	}
	forgotPasswordErrors = []ErrorCase{
		{Err: usecase.ErrValidation, Status: http.StatusBadRequest, Message: "Username or email is required"},
		{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "User not found"},
		{Err: usecase.ErrDeliveryFailed, Status: http.StatusInternalServerError, Message: "Failed to send new password"},
	}
	resetPasswordErrors = []ErrorCase{
		{Err: usecase.ErrValidation, Status: http.StatusBadRequest, Message: "Username or email, and new password are required"},
		{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "User not found"},
		{Err: usecase.ErrConfirmationFailed, Status: http.StatusInternalServerError, Message: "Password updated but failed to send confirmation"},
	}
)

// AuthHandler exposes the authentication endpoints.
type AuthHandler struct {
	auth      PasswordAuthenticator
	otp       OTPAuthenticator
	passwords PasswordRecovery
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth PasswordAuthenticator, otp OTPAuthenticator, passwords PasswordRecovery) *AuthHandler {
	return &AuthHandler{auth: auth, otp: otp, passwords: passwords}
}

// RouteMiddlewares holds optional per-route middleware chains, typically rate limits.
// Issuing and verifying codes take separate chains so mistyped codes never block a new one.
type RouteMiddlewares struct {
	Login     []gin.HandlerFunc
	OTPIssue  []gin.HandlerFunc
	OTPVerify []gin.HandlerFunc
	Password  []gin.HandlerFunc
	Me        []gin.HandlerFunc
}

// RegisterRoutes binds authentication routes, applying the optional middleware ahead of handlers.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, mw RouteMiddlewares) {
	r.POST("/login", chain(mw.Login, h.login)...)
	r.POST("/login/phone-otp", chain(mw.OTPIssue, h.loginWithPhoneOTP)...)
	r.POST("/otp/generate", chain(mw.OTPIssue, h.generateOTP)...)
	r.POST("/otp/verify", chain(mw.OTPVerify, h.verifyOTP)...)
	r.POST("/forgot-password", chain(mw.Password, h.forgotPassword)...)
	r.POST("/reset-password", chain(mw.Password, h.resetPassword)...)
	r.GET("/me", chain(mw.Me, h.me)...)
}

const invalidBodyMessage = "Invalid request body"

// bindBody decodes the JSON payload into dst. An empty body decodes as an empty request so the
// service reports which fields are missing; an unparsable one is rejected here.
func bindBody(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, invalidBodyMessage))
		return false
	}
	return true
}

func chain(middlewares []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(middlewares)+1)
	out = append(out, middlewares...)
	return append(out, handler)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if !bindBody(c, &req) {
		return
	}

	identifier, _ := domain.ResolveIdentifier(req.Username, req.Email)
	result, err := h.auth.Login(c.Request.Context(), identifier, req.Password)
	if err != nil {
		respondError(c, "login", err, loginErrors, "Login failed")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Message: "Login successful",
		UserID:  result.User.ID,
		Token:   result.Token,
		User:    newUserSummary(result),
	})
}

func (h *AuthHandler) loginWithPhoneOTP(c *gin.Context) {
	h.issueOTP(c, "OTP sent successfully for login", "", "Failed to send OTP for login")
}

func (h *AuthHandler) generateOTP(c *gin.Context) {
	h.issueOTP(c, "New OTP generated and sent successfully", "Previous OTPs have been invalidated", "Failed to regenerate OTP")
}

func (h *AuthHandler) issueOTP(c *gin.Context, message, note, fallback string) {
	var req PhoneRequest
	if !bindBody(c, &req) {
		return
	}

	result, err := h.otp.RequestOTP(c.Request.Context(), req.Phone)
	if err != nil {
		respondError(c, "request otp", err, otpIssueErrors, fallback)
		return
	}

	c.JSON(http.StatusOK, OTPIssueResponse{
		Message:          message,
		UserID:           result.UserID,
		ExpiresInMinutes: result.ExpiresInMinutes,
		Note:             note,
	})
}

func (h *AuthHandler) verifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if !bindBody(c, &req) {
		return
	}

	result, err := h.otp.VerifyOTP(c.Request.Context(), req.Phone, req.OTP)
	if err != nil {
		respondError(c, "verify otp", err, otpVerifyErrors, "Phone and OTP verification failed")
		return
	}

	c.JSON(http.StatusOK, VerifyOTPResponse{
		Message:    "Phone and OTP verified successfully. Login successful",
		UserID:     result.User.ID,
		Token:      result.Token,
		IsVerified: true,
		User:       newUserSummary(result),
	})
}

func (h *AuthHandler) forgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !bindBody(c, &req) {
		return
	}

	identifier, _ := domain.ResolveIdentifier(req.Username, req.Email)
	result, err := h.passwords.ForgotPassword(c.Request.Context(), identifier)
	if err != nil {
		respondError(c, "forgot password", err, forgotPasswordErrors, "Failed to reset password")
		return
	}

	c.JSON(http.StatusOK, PasswordResponse{
		Message: "New password generated and sent to your registered phone",
		UserID:  result.UserID,
		Phone:   result.MaskedPhone,
		Note:    "Please change your password after login for security",
	})
}

func (h *AuthHandler) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bindBody(c, &req) {
		return
	}

	identifier, _ := domain.ResolveIdentifier(req.Username, req.Email)
	result, err := h.passwords.ResetPassword(c.Request.Context(), identifier, req.NewPassword)
	if err != nil {
		respondError(c, "reset password", err, resetPasswordErrors, "Password reset failed")
		return
	}

	c.JSON(http.StatusOK, PasswordResponse{
		Message: "Password reset successfully",
		UserID:  result.UserID,
		Phone:   result.MaskedPhone,
		Note:    "Confirmation sent to your registered phone",
	})
}

func (h *AuthHandler) me(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	c.JSON(http.StatusOK, MeResponse{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Email:     claims.Email,
		Phone:     claims.Phone,
		IssuedAt:  claims.IssuedAt,
		ExpiresAt: claims.ExpiresAt,
	})
}

// respondError writes the mapped error. Server-side failures are logged with their cause
// while the client only sees the fixed message.
func respondError(c *gin.Context, op string, err error, cases []ErrorCase, fallback string) {
	if cs, ok := MatchErrorCase(err, cases); !ok || cs.Status >= http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error("auth request failed",
			zap.String("operation", op),
			zap.Error(err),
		)
		_ = c.Error(err)
	}

	RespondWithMappedError(c, err, cases, http.StatusInternalServerError, fallback)
}

func newUserSummary(result *usecase.LoginResult) UserSummary {
	return UserSummary{
		ID:       result.User.ID,
		Username: result.User.Username,
		Email:    result.User.Email,
		Phone:    result.MaskedPhone,
	}
}
