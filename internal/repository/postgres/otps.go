package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/arklim/user-auth-service/internal/core/domain"
	"github.com/arklim/user-auth-service/internal/core/port"
	"github.com/arklim/user-auth-service/internal/repository"
)

const oneTimeCodesTable = "one_time_codes"

// OneTimeCodeRepository implements port.OneTimeCodeRepository using PostgreSQL.
type OneTimeCodeRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewOneTimeCodeRepository wires a PostgreSQL-backed OTP repository.
func NewOneTimeCodeRepository(exec pgExecutor) *OneTimeCodeRepository {
	return &OneTimeCodeRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// InvalidateUnused marks every unused code of the user as used and returns how many changed.
func (r *OneTimeCodeRepository) InvalidateUnused(ctx context.Context, userID string) (int64, error) {
	stmt, args, err := r.builder.Update(oneTimeCodesTable).
		Set("is_used", true).
		Where(squirrel.Eq{"user_id": userID, "is_used": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build invalidate otp sql: %w", err)
	}

	tag, err := executorFrom(ctx, r.exec).Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("invalidate otp: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Create inserts a code row.
func (r *OneTimeCodeRepository) Create(ctx context.Context, code domain.OneTimeCode) error {
	stmt, args, err := r.builder.Insert(oneTimeCodesTable).
		Columns("id", "user_id", "code", "expires_at", "is_used", "created_at").
		Values(code.ID, code.UserID, code.Code, code.ExpiresAt, code.Used, code.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert otp sql: %w", err)
	}

	if _, err := executorFrom(ctx, r.exec).Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert otp: %w", mapWriteError(err))
	}

	return nil
}

// FindUnused returns the newest unused code matching userID and code. Expiry is not checked here.
func (r *OneTimeCodeRepository) FindUnused(ctx context.Context, userID, code string) (*domain.OneTimeCode, error) {
	stmt, args, err := r.builder.
		Select("id", "user_id", "code", "expires_at", "is_used", "created_at").
		From(oneTimeCodesTable).
		Where(squirrel.Eq{"user_id": userID, "code": code, "is_used": false}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select otp sql: %w", err)
	}

	var otp domain.OneTimeCode
	if err := executorFrom(ctx, r.exec).QueryRow(ctx, stmt, args...).Scan(
		&otp.ID,
		&otp.UserID,
		&otp.Code,
		&otp.ExpiresAt,
		&otp.Used,
		&otp.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan otp: %w", err)
	}

	return &otp, nil
}

// MarkUsed flips an unused code to used. A code already consumed yields ErrNotFound.
func (r *OneTimeCodeRepository) MarkUsed(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Update(oneTimeCodesTable).
		Set("is_used", true).
		Where(squirrel.Eq{"id": id, "is_used": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark otp used sql: %w", err)
	}

	tag, err := executorFrom(ctx, r.exec).Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("mark otp used: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.OneTimeCodeRepository = (*OneTimeCodeRepository)(nil)
