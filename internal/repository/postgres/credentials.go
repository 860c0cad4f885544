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

const credentialsTable = "credentials"

// CredentialRepository implements port.CredentialRepository using PostgreSQL.
type CredentialRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewCredentialRepository wires a PostgreSQL-backed credential repository.
func NewCredentialRepository(exec pgExecutor) *CredentialRepository {
	return &CredentialRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a credential row.
func (r *CredentialRepository) Create(ctx context.Context, credential domain.Credential) error {
	stmt, args, err := r.builder.Insert(credentialsTable).
		Columns("id", "user_id", "password_hash", "status", "created_at", "updated_at", "created_by", "updated_by").
		Values(
			credential.ID,
			credential.UserID,
			credential.PasswordHash,
			string(credential.Status),
			credential.CreatedAt,
			optionalInt64(credential.UpdatedAt),
			optionalString(credential.CreatedBy),
			optionalString(credential.UpdatedBy),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert credential sql: %w", err)
	}

	if _, err := executorFrom(ctx, r.exec).Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert credential: %w", mapWriteError(err))
	}

	return nil
}

// GetActiveByUserID returns the newest active credential for the user.
func (r *CredentialRepository) GetActiveByUserID(ctx context.Context, userID string) (*domain.Credential, error) {
	stmt, args, err := r.builder.
		Select("id", "user_id", "password_hash", "status", "created_at", "updated_at", "created_by", "updated_by").
		From(credentialsTable).
		Where(squirrel.Eq{"user_id": userID, "status": string(domain.UserStatusActive)}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select credential sql: %w", err)
	}

	var (
		credential domain.Credential
		status     string
		updatedAt  sql.NullInt64
		createdBy  sql.NullString
		updatedBy  sql.NullString
	)

	if err := executorFrom(ctx, r.exec).QueryRow(ctx, stmt, args...).Scan(
		&credential.ID,
		&credential.UserID,
		&credential.PasswordHash,
		&status,
		&credential.CreatedAt,
		&updatedAt,
		&createdBy,
		&updatedBy,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan credential: %w", err)
	}

	credential.Status = domain.UserStatus(status)
	credential.UpdatedAt = nullableInt64(updatedAt)
	credential.CreatedBy = nullableString(createdBy)
	credential.UpdatedBy = nullableString(updatedBy)

	return &credential, nil
}

// ExistsForUser reports whether any credential row references the user.
func (r *CredentialRepository) ExistsForUser(ctx context.Context, userID string) (bool, error) {
	stmt, args, err := r.builder.
		Select("1").
		From(credentialsTable).
		Where(squirrel.Eq{"user_id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build credential exists sql: %w", err)
	}

	var marker int
	if err := executorFrom(ctx, r.exec).QueryRow(ctx, stmt, args...).Scan(&marker); err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("scan credential exists: %w", err)
	}

	return true, nil
}

// UpdatePassword replaces the hash on the user's active credential.
func (r *CredentialRepository) UpdatePassword(ctx context.Context, userID, passwordHash string, updatedAt int64) error {
	stmt, args, err := r.builder.Update(credentialsTable).
		Set("password_hash", passwordHash).
		Set("updated_at", updatedAt).
		Where(squirrel.Eq{"user_id": userID, "status": string(domain.UserStatusActive)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update credential sql: %w", err)
	}

	tag, err := executorFrom(ctx, r.exec).Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.CredentialRepository = (*CredentialRepository)(nil)
