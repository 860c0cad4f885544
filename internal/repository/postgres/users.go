package postgres

import (
	"context"
	"database/sql"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/arklim/user-auth-service/internal/core/domain"
	"github.com/arklim/user-auth-service/internal/core/port"
	"github.com/arklim/user-auth-service/internal/repository"
)

const usersTable = "users"

var userColumns = []string{
	"id",
	"username",
	"email",
	"phone",
	"country_code",
	"first_name",
	"last_name",
	"gender",
	"is_phone_verified",
	"is_email_verified",
	"status",
	"created_at",
	"updated_at",
	"created_by",
	"updated_by",
}

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository wires a PostgreSQL-backed user repository.
func NewUserRepository(exec pgExecutor) *UserRepository {
	return &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	var gender any
	if user.Gender != nil {
		gender = string(*user.Gender)
	}

	sqlStmt, args, err := r.builder.Insert(usersTable).
		Columns(userColumns...).
		Values(
			user.ID,
			user.Username,
			optionalString(user.Email),
			optionalString(user.Phone),
			optionalString(user.CountryCode),
			optionalString(user.FirstName),
			optionalString(user.LastName),
			gender,
			user.PhoneVerified,
			user.EmailVerified,
			string(user.Status),
			user.CreatedAt,
			optionalInt64(user.UpdatedAt),
			optionalString(user.CreatedBy),
			optionalString(user.UpdatedBy),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := executorFrom(ctx, r.exec).Exec(ctx, sqlStmt, args...); err != nil {
		return fmt.Errorf("insert user: %w", mapWriteError(err))
	}

	return nil
}

// GetByUsername retrieves a user by username regardless of status.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, "select user by username", squirrel.Eq{"username": username})
}

// GetActiveByIdentifier retrieves an active user by username or email.
func (r *UserRepository) GetActiveByIdentifier(ctx context.Context, identifier domain.Identifier) (*domain.User, error) {
	var column string
	switch identifier.Kind {
	case domain.IdentifierUsername:
		column = "username"
	case domain.IdentifierEmail:
		column = "email"
	default:
		return nil, fmt.Errorf("unsupported identifier kind %q", identifier.Kind)
	}

	return r.getOne(ctx, "select user by identifier", squirrel.Eq{
		column:   identifier.Value,
		"status": string(domain.UserStatusActive),
	})
}

// GetActiveByPhone retrieves an active user by phone number.
func (r *UserRepository) GetActiveByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.getOne(ctx, "select user by phone", squirrel.Eq{
		"phone":  phone,
		"status": string(domain.UserStatusActive),
	})
}

func (r *UserRepository) getOne(ctx context.Context, op string, where squirrel.Eq) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From(usersTable).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s sql: %w", op, err)
	}

	user, err := scanUser(executorFrom(ctx, r.exec).QueryRow(ctx, stmt, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan %s: %w", op, err)
	}

	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user        domain.User
		email       sql.NullString
		phone       sql.NullString
		countryCode sql.NullString
		firstName   sql.NullString
		lastName    sql.NullString
		gender      sql.NullString
		status      string
		updatedAt   sql.NullInt64
		createdBy   sql.NullString
		updatedBy   sql.NullString
	)

	if err := row.Scan(
		&user.ID,
		&user.Username,
		&email,
		&phone,
		&countryCode,
		&firstName,
		&lastName,
		&gender,
		&user.PhoneVerified,
		&user.EmailVerified,
		&status,
		&user.CreatedAt,
		&updatedAt,
		&createdBy,
		&updatedBy,
	); err != nil {
		return nil, err
	}

	user.Status = domain.UserStatus(status)
	user.Email = nullableString(email)
	user.Phone = nullableString(phone)
	user.CountryCode = nullableString(countryCode)
	user.FirstName = nullableString(firstName)
	user.LastName = nullableString(lastName)
	user.CreatedBy = nullableString(createdBy)
	user.UpdatedBy = nullableString(updatedBy)
	user.UpdatedAt = nullableInt64(updatedAt)
	if gender.Valid {
		g := domain.Gender(gender.String)
		user.Gender = &g
	}

	return &user, nil
}

func nullableString(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func nullableInt64(value sql.NullInt64) *int64 {
	if !value.Valid {
		return nil
	}
	v := value.Int64
	return &v
}

var _ port.UserRepository = (*UserRepository)(nil)
