package photos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/dbx"
	"github.com/dmitrijs2005/photogallery/internal/server/models"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

const photoColumns = `photo_id, owner_id, created_at, title, description, tags, url, visibility, exif_data`

// PostgresRepository implements photo storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert relies on the primary key on photo_id; a unique violation becomes
// common.ErrConflict.
func (r *PostgresRepository) Insert(ctx context.Context, p *models.Photo) error {
	query :=
		`INSERT INTO photos (` + photoColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		p.PhotoID, p.OwnerID, p.CreatedAt, p.Title, p.Description, p.Tags, p.URL, string(p.Visibility), p.Exif)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("photo %s: %w", p.PhotoID, common.ErrConflict)
		}
		return common.Unavailable("db error", err)
	}
	return nil
}

func (r *PostgresRepository) ListPublic(ctx context.Context) ([]*models.Photo, error) {
	query :=
		`SELECT ` + photoColumns + ` FROM photos
		 WHERE visibility = $1
		 ORDER BY created_at DESC, photo_id DESC`

	return r.query(ctx, query, string(models.VisibilityPublic))
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Photo, error) {
	query :=
		`SELECT ` + photoColumns + ` FROM photos
		 WHERE owner_id = $1
		 ORDER BY created_at DESC, photo_id DESC`

	return r.query(ctx, query, ownerID)
}

func (r *PostgresRepository) GetByID(ctx context.Context, photoID string) (*models.Photo, error) {
	query :=
		`SELECT ` + photoColumns + ` FROM photos
		 WHERE photo_id = $1`

	p, err := scanPhoto(r.db.QueryRowContext(ctx, query, photoID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, common.Unavailable("db error", err)
	}
	return p, nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Photo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.Unavailable("db error", err)
	}
	defer rows.Close()

	out := make([]*models.Photo, 0)
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, common.Unavailable("rows error", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhoto(row rowScanner) (*models.Photo, error) {
	var (
		p          models.Photo
		visibility string
	)
	err := row.Scan(&p.PhotoID, &p.OwnerID, &p.CreatedAt, &p.Title, &p.Description,
		&p.Tags, &p.URL, &visibility, &p.Exif)
	if err != nil {
		return nil, err
	}
	p.Visibility = models.Visibility(visibility)
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}
