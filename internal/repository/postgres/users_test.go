package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/arklim/user-auth-service/internal/core/domain"
	"github.com/arklim/user-auth-service/internal/repository"
)

var userRowColumns = []string{
	"id", "username", "email", "phone", "country_code", "first_name", "last_name", "gender",
	"is_phone_verified", "is_email_verified", "status", "created_at", "updated_at", "created_by", "updated_by",
}

func TestUserRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	email := "admin@example.com"
	phone := "1234567890"
	gender := domain.GenderMale
	user := domain.User{
		ID:            "user-1",
		Username:      "admin",
		Email:         &email,
		Phone:         &phone,
		Gender:        &gender,
		PhoneVerified: true,
		EmailVerified: true,
		Status:        domain.UserStatusActive,
		CreatedAt:     1700000000,
	}

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(
			"user-1", "admin", email, phone, nil, nil, nil, "male",
			true, true, "active", int64(1700000000), nil, nil, nil,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_Create_MapsUniqueViolation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	err = repo.Create(context.Background(), domain.User{ID: "user-1", Username: "admin", Status: domain.UserStatusActive})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestUserRepository_GetActiveByPhone(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	rows := pgxmock.NewRows(userRowColumns).AddRow(
		"user-1", "alice", nil, "9198765432", "+91", "Alice", nil, "female",
		true, false, "active", int64(1700000000), int64(1700000100), nil, nil,
	)

	mock.ExpectQuery(`SELECT .* FROM users WHERE phone = \$1 AND status = \$2 LIMIT 1`).
		WithArgs("9198765432", "active").
		WillReturnRows(rows)

	user, err := repo.GetActiveByPhone(context.Background(), "9198765432")
	if err != nil {
		t.Fatalf("GetActiveByPhone returned error: %v", err)
	}
	if user.Username != "alice" || user.PhoneValue() != "9198765432" {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.Email != nil {
		t.Fatalf("expected nil email")
	}
	if user.Gender == nil || *user.Gender != domain.GenderFemale {
		t.Fatalf("expected female gender")
	}
	if user.UpdatedAt == nil || *user.UpdatedAt != 1700000100 {
		t.Fatalf("expected updated_at to be populated")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_GetActiveByIdentifier_Email(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	rows := pgxmock.NewRows(userRowColumns).AddRow(
		"user-2", "bob", "bob@example.com", nil, nil, nil, nil, nil,
		false, true, "active", int64(1700000000), nil, nil, nil,
	)

	mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1 AND status = \$2 LIMIT 1`).
		WithArgs("bob@example.com", "active").
		WillReturnRows(rows)

	user, err := repo.GetActiveByIdentifier(context.Background(), domain.EmailIdentifier("bob@example.com"))
	if err != nil {
		t.Fatalf("GetActiveByIdentifier returned error: %v", err)
	}
	if user.ID != "user-2" || user.EmailValue() != "bob@example.com" {
		t.Fatalf("unexpected user %+v", user)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_GetActiveByIdentifier_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectQuery(`SELECT .* FROM users WHERE status = \$1 AND username = \$2 LIMIT 1`).
		WithArgs("active", "ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetActiveByIdentifier(context.Background(), domain.UsernameIdentifier("ghost"))
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_GetActiveByIdentifier_RejectsUnknownKind(t *testing.T) {
	repo := NewUserRepository(nil)

	if _, err := repo.GetActiveByIdentifier(context.Background(), domain.Identifier{Kind: "phone", Value: "1"}); err == nil {
		t.Fatalf("expected error for unsupported identifier kind")
	}
}
