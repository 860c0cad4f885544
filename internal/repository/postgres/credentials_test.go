package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/arklim/user-auth-service/internal/repository"
)

func TestCredentialRepository_GetActiveByUserID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewCredentialRepository(mock)

	rows := pgxmock.NewRows([]string{"id", "user_id", "password_hash", "status", "created_at", "updated_at", "created_by", "updated_by"}).
		AddRow("cred-1", "user-1", "$argon2id$hash", "active", int64(1700000000), nil, nil, nil)

	mock.ExpectQuery(`SELECT .* FROM credentials WHERE status = \$1 AND user_id = \$2 ORDER BY created_at DESC LIMIT 1`).
		WithArgs("active", "user-1").
		WillReturnRows(rows)

	credential, err := repo.GetActiveByUserID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetActiveByUserID returned error: %v", err)
	}
	if credential.PasswordHash != "$argon2id$hash" {
		t.Fatalf("unexpected hash %q", credential.PasswordHash)
	}
	if credential.UpdatedAt != nil {
		t.Fatalf("expected nil updated_at")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCredentialRepository_ExistsForUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewCredentialRepository(mock)

	mock.ExpectQuery(`SELECT 1 FROM credentials WHERE user_id = \$1 LIMIT 1`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(`SELECT 1 FROM credentials WHERE user_id = \$1 LIMIT 1`).
		WithArgs("user-2").
		WillReturnError(pgx.ErrNoRows)

	exists, err := repo.ExistsForUser(context.Background(), "user-1")
	if err != nil || !exists {
		t.Fatalf("expected credential to exist, got %v %v", exists, err)
	}

	exists, err = repo.ExistsForUser(context.Background(), "user-2")
	if err != nil || exists {
		t.Fatalf("expected no credential, got %v %v", exists, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCredentialRepository_UpdatePassword(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewCredentialRepository(mock)

	mock.ExpectExec(`UPDATE credentials SET password_hash = \$1, updated_at = \$2 WHERE status = \$3 AND user_id = \$4`).
		WithArgs("new-hash", int64(1700000500), "active", "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE credentials`).
		WithArgs("new-hash", int64(1700000500), "active", "user-2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.UpdatePassword(context.Background(), "user-1", "new-hash", 1700000500); err != nil {
		t.Fatalf("UpdatePassword returned error: %v", err)
	}

	err = repo.UpdatePassword(context.Background(), "user-2", "new-hash", 1700000500)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
