package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestPostgresRegister_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Unix(1700000000, 0).UTC()
	q := `(?s)^INSERT\s+INTO\s+users\s*\(email,\s*password_hash,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)$`
	mock.ExpectExec(q).
		WithArgs("alice@example.com", "hash", created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Register(context.Background(), &models.User{Email: "Alice@Example.com", PasswordHash: "hash", CreatedAt: created})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRegister_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Register(context.Background(), &models.User{Email: "a@b.c", PasswordHash: "h"})
	require.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestPostgresRegister_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(errors.New("db down"))

	err := repo.Register(context.Background(), &models.User{Email: "a@b.c", PasswordHash: "h"})
	require.ErrorIs(t, err, common.ErrUnavailable)
	if !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestPostgresFindByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Unix(5, 0).UTC()
	q := `(?s)^SELECT\s+email,\s*password_hash,\s*created_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`
	rows := sqlmock.NewRows([]string{"email", "password_hash", "created_at"}).
		AddRow("alice@example.com", "hash", created)
	mock.ExpectQuery(q).WithArgs("alice@example.com").WillReturnRows(rows)

	got, err := repo.FindByEmail(context.Background(), " ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, &models.User{Email: "alice@example.com", PasswordHash: "hash", CreatedAt: created}, got)
}

func TestPostgresFindByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WithArgs("ghost@example.com").WillReturnError(sql.ErrNoRows)

	got, err := repo.FindByEmail(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPostgresFindByEmail_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("db err"))

	_, err := repo.FindByEmail(context.Background(), "a@b.c")
	require.ErrorIs(t, err, common.ErrUnavailable)
}

func TestPostgresFindByEmail_CreatedAtIsUTC(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("EET", 2*60*60))
	rows := sqlmock.NewRows([]string{"email", "password_hash", "created_at"}).
		AddRow("alice@example.com", "hash", created)
	mock.ExpectQuery(`SELECT`).WithArgs("alice@example.com").WillReturnRows(rows)

	got, err := repo.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.CreatedAt.Location())
	assert.True(t, created.Equal(got.CreatedAt))
}
