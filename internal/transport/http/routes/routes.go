package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/arklim/user-auth-service/internal/infra/config"
	"github.com/arklim/user-auth-service/internal/transport/http/handlers"
	"github.com/arklim/user-auth-service/internal/transport/http/middleware"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth      AuthService
	OTP       handlers.OTPAuthenticator
	Passwords handlers.PasswordRecovery
}

// AuthService covers password login and bearer token checks.
type AuthService interface {
	handlers.PasswordAuthenticator
	middleware.TokenVerifier
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config         *config.AppConfig
	Logger         *zap.Logger
	RateLimiter    *middleware.RateLimiter
	Services       ServiceSet
	Metrics        *middleware.RouteMetrics
	Gatherer       prometheus.Gatherer
	TracerProvider trace.TracerProvider
	Propagators    propagation.TextMapPropagator
	Database       DatabaseChecker
	Cache          CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config != nil && deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Tracing(middleware.TracingOptions{
		TracerProvider: deps.TracerProvider,
		Propagators:    deps.Propagators,
	}))
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(deps.Metrics.Handler())

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	} else {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	if deps.Services.Auth == nil || deps.Services.OTP == nil || deps.Services.Passwords == nil {
		return r
	}

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Services.OTP, deps.Services.Passwords)
		authHandler.RegisterRoutes(authGroup, handlers.RouteMiddlewares{
			Login:     buildLoginMiddlewares(deps),
			OTPIssue:  buildOTPIssueMiddlewares(deps),
			OTPVerify: buildOTPVerifyMiddlewares(deps),
			Password:  buildPasswordResetMiddlewares(deps),
			Me:        []gin.HandlerFunc{middleware.RequireAuth(deps.Services.Auth, deps.Logger)},
		})
	}

	return r
}

func rateLimitWindow(deps Dependencies, fallback time.Duration) time.Duration {
	if window := deps.Config.RateLimit.WindowDuration; window > 0 {
		return window
	}
	return fallback
}

func buildLoginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.LoginMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := rateLimitWindow(deps, time.Minute)
	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(
		middleware.RateLimitRule{
			Name:       "auth_login_ip",
			Limit:      limit,
			Window:     window,
			Identifier: middleware.ClientIPIdentifier(),
		},
		middleware.RateLimitRule{
			Name:       "auth_login_identifier",
			Limit:      limit,
			Window:     window,
			Identifier: middleware.JSONFieldIdentifier("username", "email"),
		},
	)}
}

func buildOTPIssueMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}
	return phoneRateLimit(deps, "auth_otp_issue", deps.Config.RateLimit.OTPMaxAttempts)
}

func buildOTPVerifyMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}
	return phoneRateLimit(deps, "auth_otp_verify", deps.Config.RateLimit.OTPVerifyMaxAttempts)
}

// phoneRateLimit limits a route per client IP and per phone number under its own rule names.
func phoneRateLimit(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	if limit <= 0 {
		return nil
	}

	window := rateLimitWindow(deps, time.Minute)
	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(
		middleware.RateLimitRule{
			Name:       name + "_ip",
			Limit:      limit,
			Window:     window,
			Identifier: middleware.ClientIPIdentifier(),
		},
		middleware.RateLimitRule{
			Name:       name + "_phone",
			Limit:      limit,
			Window:     window,
			Identifier: middleware.JSONFieldIdentifier("phone"),
		},
	)}
}

func buildPasswordResetMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.PasswordResetMaxAttempts
	if limit <= 0 {
		return nil
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(middleware.RateLimitRule{
		Name:       "password_reset_ip",
		Limit:      limit,
		Window:     rateLimitWindow(deps, time.Hour),
		Identifier: middleware.ClientIPIdentifier(),
	})}
}
