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

const (
	rolesTable     = "roles"
	userRolesTable = "user_roles"
)

// RoleRepository implements role persistence operations.
type RoleRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewRoleRepository constructs a PostgreSQL-backed role repository.
func NewRoleRepository(exec pgExecutor) *RoleRepository {
	return &RoleRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new role.
func (r *RoleRepository) Create(ctx context.Context, role domain.Role) error {
	stmt, args, err := r.builder.Insert(rolesTable).
		Columns("id", "name", "status", "created_at", "updated_at", "created_by", "updated_by").
		Values(
			role.ID,
			role.Name,
			string(role.Status),
			role.CreatedAt,
			optionalInt64(role.UpdatedAt),
			optionalString(role.CreatedBy),
			optionalString(role.UpdatedBy),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert role sql: %w", err)
	}

	if _, err := executorFrom(ctx, r.exec).Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert role: %w", mapWriteError(err))
	}

	return nil
}

// GetByName retrieves a role by its unique name.
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	stmt, args, err := r.builder.
		Select("id", "name", "status", "created_at", "updated_at", "created_by", "updated_by").
		From(rolesTable).
		Where(squirrel.Eq{"name": name}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select role by name sql: %w", err)
	}

	var (
		role      domain.Role
		status    string
		updatedAt sql.NullInt64
		createdBy sql.NullString
		updatedBy sql.NullString
	)

	if err := executorFrom(ctx, r.exec).QueryRow(ctx, stmt, args...).Scan(
		&role.ID,
		&role.Name,
		&status,
		&role.CreatedAt,
		&updatedAt,
		&createdBy,
		&updatedBy,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan role by name: %w", err)
	}

	role.Status = domain.UserStatus(status)
	role.UpdatedAt = nullableInt64(updatedAt)
	role.CreatedBy = nullableString(createdBy)
	role.UpdatedBy = nullableString(updatedBy)

	return &role, nil
}

// HasAssignment reports whether the user already holds the role.
func (r *RoleRepository) HasAssignment(ctx context.Context, userID, roleID string) (bool, error) {
	stmt, args, err := r.builder.
		Select("1").
		From(userRolesTable).
		Where(squirrel.Eq{"user_id": userID, "role_id": roleID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build select user role sql: %w", err)
	}

	var marker int
	if err := executorFrom(ctx, r.exec).QueryRow(ctx, stmt, args...).Scan(&marker); err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("scan user role: %w", err)
	}

	return true, nil
}

// Assign links a role to a user.
func (r *RoleRepository) Assign(ctx context.Context, assignment domain.UserRole) error {
	stmt, args, err := r.builder.Insert(userRolesTable).
		Columns("id", "user_id", "role_id", "status", "created_at").
		Values(assignment.ID, assignment.UserID, assignment.RoleID, string(assignment.Status), assignment.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user role sql: %w", err)
	}

	if _, err := executorFrom(ctx, r.exec).Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert user role: %w", mapWriteError(err))
	}

	return nil
}

var _ port.RoleRepository = (*RoleRepository)(nil)
