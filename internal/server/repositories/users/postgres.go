package users

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

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Register(ctx context.Context, u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)

	query :=
		`INSERT INTO users (email, password_hash, created_at)
		 VALUES ($1, $2, $3)`

	_, err := r.db.ExecContext(ctx, query, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("user %s: %w", u.Email, common.ErrAlreadyExists)
		}
		return common.Unavailable("db error", err)
	}
	return nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT email, password_hash, created_at FROM users
		 WHERE email = $1`

	u := &models.User{}
	err := r.db.QueryRowContext(ctx, query, models.NormalizeEmail(email)).Scan(&u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, common.Unavailable("db error", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}
