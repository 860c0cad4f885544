package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/user-auth-service/internal/core/domain"
	"github.com/arklim/user-auth-service/internal/core/port"
	"github.com/arklim/user-auth-service/internal/repository"
)

// AdminSeed describes the administrative identity created at startup.
type AdminSeed struct {
	RoleName    string
	Username    string
	Email       string
	Phone       string
	CountryCode string
	FirstName   string
	LastName    string
	Password    string
}

// Bootstrapper seeds the default admin role, user, credential and assignment.
type Bootstrapper struct {
	users       port.UserRepository
	credentials port.CredentialRepository
	roles       port.RoleRepository
	tx          port.Transactor
	hasher      port.PasswordHasher
	clock       port.Clock
	logger      *zap.Logger
	newID       func() string
}

// NewBootstrapper constructs a Bootstrapper instance.
func NewBootstrapper(
	users port.UserRepository,
	credentials port.CredentialRepository,
	roles port.RoleRepository,
	tx port.Transactor,
	hasher port.PasswordHasher,
	clock port.Clock,
	logger *zap.Logger,
) *Bootstrapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bootstrapper{
		users:       users,
		credentials: credentials,
		roles:       roles,
		tx:          tx,
		hasher:      hasher,
		clock:       clock,
		logger:      logger,
		newID:       uuid.NewString,
	}
}

// EnsureAdmin inserts whatever part of the seed is missing. Running it again is a no-op.
func (b *Bootstrapper) EnsureAdmin(ctx context.Context, seed AdminSeed) error {
	ctx, span := tracer.Start(ctx, "Bootstrapper.EnsureAdmin")
	defer span.End()

	if strings.TrimSpace(seed.RoleName) == "" || strings.TrimSpace(seed.Username) == "" || seed.Password == "" {
		return fmt.Errorf("%w: admin seed requires role, username and password", ErrValidation)
	}

	err := b.tx.InTransaction(ctx, func(ctx context.Context) error {
		role, err := b.ensureRole(ctx, seed.RoleName)
		if err != nil {
			return err
		}

		user, err := b.ensureUser(ctx, seed)
		if err != nil {
			return err
		}

		if err := b.ensureCredential(ctx, user.ID, seed.Password); err != nil {
			return err
		}

		return b.ensureAssignment(ctx, user.ID, role.ID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return fmt.Errorf("seed admin: %w", err)
	}

	return nil
}

func (b *Bootstrapper) ensureRole(ctx context.Context, name string) (*domain.Role, error) {
	role, err := b.roles.GetByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup role: %w", err)
	}

	created := domain.Role{
		ID:        b.newID(),
		Name:      name,
		Status:    domain.UserStatusActive,
		CreatedAt: b.clock.UnixNow(),
	}
	if err := b.roles.Create(ctx, created); err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}
	b.logger.Info("admin role created", zap.String("role", name))
	return &created, nil
}

func (b *Bootstrapper) ensureUser(ctx context.Context, seed AdminSeed) (*domain.User, error) {
	user, err := b.users.GetByUsername(ctx, seed.Username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup admin user: %w", err)
	}

	gender := domain.GenderMale
	created := domain.User{
		ID:            b.newID(),
		Username:      seed.Username,
		Email:         optional(seed.Email),
		Phone:         optional(seed.Phone),
		CountryCode:   optional(seed.CountryCode),
		FirstName:     optional(seed.FirstName),
		LastName:      optional(seed.LastName),
		Gender:        &gender,
		PhoneVerified: true,
		EmailVerified: true,
		Status:        domain.UserStatusActive,
		CreatedAt:     b.clock.UnixNow(),
	}
	if err := b.users.Create(ctx, created); err != nil {
		return nil, fmt.Errorf("create admin user: %w", err)
	}
	b.logger.Info("admin user created", zap.String("username", seed.Username))
	return &created, nil
}

func (b *Bootstrapper) ensureCredential(ctx context.Context, userID, password string) error {
	exists, err := b.credentials.ExistsForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup admin credential: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := b.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if err := b.credentials.Create(ctx, domain.Credential{
		ID:           b.newID(),
		UserID:       userID,
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
		CreatedAt:    b.clock.UnixNow(),
	}); err != nil {
		return fmt.Errorf("create admin credential: %w", err)
	}
	return nil
}

func (b *Bootstrapper) ensureAssignment(ctx context.Context, userID, roleID string) error {
	assigned, err := b.roles.HasAssignment(ctx, userID, roleID)
	if err != nil {
		return fmt.Errorf("lookup admin role assignment: %w", err)
	}
	if assigned {
		return nil
	}

	if err := b.roles.Assign(ctx, domain.UserRole{
		ID:        b.newID(),
		UserID:    userID,
		RoleID:    roleID,
		Status:    domain.UserStatusActive,
		CreatedAt: b.clock.UnixNow(),
	}); err != nil {
		return fmt.Errorf("assign admin role: %w", err)
	}
	return nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
