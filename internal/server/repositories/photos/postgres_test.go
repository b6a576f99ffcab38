package photos

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

var photoCols = []string{"photo_id", "owner_id", "created_at", "title", "description", "tags", "url", "visibility", "exif_data"}

func newPostgresWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func samplePhoto() *models.Photo {
	return &models.Photo{
		PhotoID:    "1700000000000",
		OwnerID:    "alice@example.com",
		CreatedAt:  time.Unix(1700000000, 0).UTC(),
		Title:      "Sunset",
		Tags:       "beach",
		URL:        "https://b.s3.us-east-2.amazonaws.com/photos/x.jpg",
		Visibility: models.VisibilityPublic,
		Exif:       `{"Image Make":"Canon"}`,
	}
}

func TestPostgresInsert_Success(t *testing.T) {
	repo, mock, db := newPostgresWithMock(t)
	defer db.Close()

	p := samplePhoto()
	q := `(?s)^INSERT\s+INTO\s+photos\s*\(photo_id,\s*owner_id,.*exif_data\)\s*VALUES\s*\(\$1,.*\$9\)$`
	mock.ExpectExec(q).
		WithArgs(p.PhotoID, p.OwnerID, p.CreatedAt, p.Title, p.Description, p.Tags, p.URL, "public", p.Exif).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), p))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsert_UniqueViolationIsConflict(t *testing.T) {
	repo, mock, db := newPostgresWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO photos`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Insert(context.Background(), samplePhoto())
	require.ErrorIs(t, err, common.ErrConflict)
}

func TestPostgresInsert_OtherErrorIsUnavailable(t *testing.T) {
	repo, mock, db := newPostgresWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO photos`).WillReturnError(errors.New("db down"))

	err := repo.Insert(context.Background(), samplePhoto())
	require.ErrorIs(t, err, common.ErrUnavailable)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}

func TestPostgresListPublic_OrderedQuery(t *testing.T) {
	repo, mock, db := newPostgresWithMock(t)
	defer db.Close()

	t0 := time.Unix(1700000000, 0).UTC()
	q := `(?s)^SELECT\s+photo_id,.*FROM\s+photos\s+WHERE\s+visibility\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC,\s*photo_id\s+DESC$`
	rows := sqlmock.NewRows(photoCols).
		AddRow("2", "bob", t0.Add(time.Second), "B", "", "", "u2", "public", "{}").
		AddRow("1", "alice", t0, "A", "", "", "u1", "public", "{}")
	mock.ExpectQuery(q).WithArgs("public").WillReturnRows(rows)

	got, err := repo.ListPublic(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].PhotoID)
	assert.Equal(t, models.VisibilityPublic, got[1].Visibility)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListByOwner(t *testing.T) {
	repo, mock, db := newPostgresWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+photo_id,.*FROM\s+photos\s+WHERE\s+owner_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC,\s*photo_id\s+DESC$`
	rows := sqlmock.NewRows(photoCols).
		AddRow("1", "alice", time.Unix(1, 0), "A", "", "", "u1", "private", "{}")
	mock.ExpectQuery(q).WithArgs("alice").WillReturnRows(rows)

	got, err := repo.ListByOwner(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.VisibilityPrivate, got[0].Visibility)
}

func TestPostgresList_EmptyIsNonNil(t *testing.T) {
	repo, mock, db := newPostgresWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WillReturnRows(sqlmock.NewRows(photoCols))

	got, err := repo.ListByOwner(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPostgresList_QueryError(t *testing.T) {
	repo, mock, db := newPostgresWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WillReturnError(context.DeadlineExceeded)

	_, err := repo.ListPublic(context.Background())
	require.ErrorIs(t, err, common.ErrUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPostgresGetByID_Found(t *testing.T) {
	repo, mock, db := newPostgresWithMock(t)
	defer db.Close()

	p := samplePhoto()
	q := `(?s)^SELECT\s+photo_id,.*FROM\s+photos\s+WHERE\s+photo_id\s*=\s*\$1$`
	rows := sqlmock.NewRows(photoCols).
		AddRow(p.PhotoID, p.OwnerID, p.CreatedAt, p.Title, p.Description, p.Tags, p.URL, "public", p.Exif)
	mock.ExpectQuery(q).WithArgs(p.PhotoID).WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), p.PhotoID)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestPostgresGetByID_MissingIsNil(t *testing.T) {
	repo, mock, db := newPostgresWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPostgresScan_CreatedAtIsUTC(t *testing.T) {
	repo, mock, db := newPostgresWithMock(t)
	defer db.Close()

	riga := time.FixedZone("EET", 2*60*60)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, riga)
	rows := sqlmock.NewRows(photoCols).
		AddRow("1", "alice", created, "A", "", "", "u1", "public", "{}")
	mock.ExpectQuery(`SELECT`).WithArgs("1").WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.CreatedAt.Location())
	assert.True(t, created.Equal(got.CreatedAt))
}
