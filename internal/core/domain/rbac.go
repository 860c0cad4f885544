package domain

// Role is an administrative grouping of users.
type Role struct {
	ID        string
	Name      string
	Status    UserStatus
	CreatedAt int64
	UpdatedAt *int64
	CreatedBy *string
	UpdatedBy *string
}

// UserRole assigns a role to a user.
type UserRole struct {
	ID        string
	UserID    string
	RoleID    string
	Status    UserStatus
	CreatedAt int64
}
