package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/arklim/user-auth-service/internal/core/port"
	"github.com/arklim/user-auth-service/internal/infra/clock"
	"github.com/arklim/user-auth-service/internal/infra/config"
	"github.com/arklim/user-auth-service/internal/infra/database"
	kafkainfra "github.com/arklim/user-auth-service/internal/infra/kafka"
	"github.com/arklim/user-auth-service/internal/infra/logger"
	redisinfra "github.com/arklim/user-auth-service/internal/infra/redis"
	"github.com/arklim/user-auth-service/internal/infra/security"
	"github.com/arklim/user-auth-service/internal/infra/telemetry"
	postgresrepo "github.com/arklim/user-auth-service/internal/repository/postgres"
	redisrepo "github.com/arklim/user-auth-service/internal/repository/redis"
	"github.com/arklim/user-auth-service/internal/transport/http/middleware"
	"github.com/arklim/user-auth-service/internal/transport/http/routes"
	"github.com/arklim/user-auth-service/internal/usecase"
)

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
	tracer   *telemetry.TracerProvider
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env, cfg.App.Name)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	application := &Application{cfg: cfg, logger: log, tracer: tracer}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		application.release()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	application.pool = pool

	repos := postgresrepo.NewRepositories(pool)

	zoneClock, err := clock.New(cfg.Clock.Timezone)
	if err != nil {
		application.release()
		return nil, fmt.Errorf("init clock: %w", err)
	}
	log.Info("service clock configured", zap.String("timezone", zoneClock.Location().String()))

	hasher, err := security.NewArgon2Hasher(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	if err != nil {
		application.release()
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	tokens, err := security.NewHMACTokenIssuer(cfg.JWT.Secret, security.TokenLifetime, zoneClock.Now)
	if err != nil {
		application.release()
		return nil, fmt.Errorf("init token issuer: %w", err)
	}

	codes := security.NewRandomCodeGenerator()

	var sender port.NotificationSender
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub sender", zap.Error(err))
			sender = kafkainfra.NewStubSender(log)
		} else {
			application.producer = producer
			sender = kafkainfra.NewSMSSender(producer, cfg.Kafka.SMSTopic, cfg.App)
			log.Info("kafka sms sender initialized",
				zap.Strings("brokers", cfg.Kafka.Brokers),
				zap.String("topic", cfg.Kafka.SMSTopic),
			)
		}
	} else {
		log.Info("kafka brokers not configured, using stub sender")
		sender = kafkainfra.NewStubSender(log)
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.Redis.Enabled {
		redisClient, err := redisinfra.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			application.release()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		application.redis = redisClient

		window := cfg.RateLimit.WindowDuration
		if window <= 0 {
			window = time.Minute
		}
		store := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
			KeyPrefix: cfg.Redis.RateLimitPrefix,
			TTL:       window * 2,
		})
		rateLimiter = middleware.NewRateLimiter(store, log)
	} else {
		log.Info("redis disabled, rate limiting is off")
	}

	registry := prometheus.NewRegistry()
	flowMetrics := telemetry.NewMetrics(registry)
	httpMetrics, err := middleware.NewRouteMetrics(middleware.RouteMetricsOptions{Registerer: registry})
	if err != nil {
		application.release()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	authService := usecase.NewAuthService(repos.Users, repos.Credentials, hasher, tokens, log,
		usecase.WithAuthMetrics(flowMetrics),
	)
	otpService := usecase.NewOTPService(repos.Users, repos.OneTimeCodes, repos.Transactor, codes, sender, tokens, zoneClock, log,
		usecase.WithOTPTTL(cfg.OTP.TTL),
		usecase.WithOTPMetrics(flowMetrics),
	)
	passwordService := usecase.NewPasswordService(repos.Users, repos.Credentials, repos.Transactor, codes, hasher, sender, zoneClock, log,
		usecase.WithPasswordMetrics(flowMetrics),
	)

	if cfg.Bootstrap.Enabled {
		bootstrapper := usecase.NewBootstrapper(repos.Users, repos.Credentials, repos.Roles, repos.Transactor, hasher, zoneClock, log)
		if err := bootstrapper.EnsureAdmin(ctx, usecase.AdminSeed{
			RoleName:    cfg.Bootstrap.RoleName,
			Username:    cfg.Bootstrap.Username,
			Email:       cfg.Bootstrap.Email,
			Phone:       cfg.Bootstrap.Phone,
			CountryCode: cfg.Bootstrap.CountryCode,
			FirstName:   "Admin",
			LastName:    "User",
			Password:    cfg.Bootstrap.Password,
		}); err != nil {
			application.release()
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	deps := routes.Dependencies{
		Config:         cfg,
		Logger:         log,
		RateLimiter:    rateLimiter,
		Metrics:        httpMetrics,
		Gatherer:       registry,
		TracerProvider: otel.GetTracerProvider(),
		Propagators:    otel.GetTextMapPropagator(),
		Database:       pool,
		Services: routes.ServiceSet{
			Auth:      authService,
			OTP:       otpService,
			Passwords: passwordService,
		},
	}
	if application.redis != nil {
		deps.Cache = application.redis
	}
	application.engine = routes.Register(deps)

	return application, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer a.release()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		a.logger.Info("auth API stopped")
		return nil
	case err := <-serverErrCh:
		return err
	}
}

// release closes every dependency opened so far, in reverse order.
func (a *Application) release() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("close kafka producer", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			a.logger.Warn("shutdown tracer", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
