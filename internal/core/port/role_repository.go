package port

import (
	"context"

	"github.com/arklim/user-auth-service/internal/core/domain"
)

// RoleRepository handles the role persistence needed at bootstrap.
type RoleRepository interface {
	Create(ctx context.Context, role domain.Role) error
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	HasAssignment(ctx context.Context, userID, roleID string) (bool, error)
	Assign(ctx context.Context, assignment domain.UserRole) error
}
