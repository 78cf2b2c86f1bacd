package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/fekuna/omnipos-restaurant-service/pkg/database"
	"github.com/jmoiron/sqlx"
)

type SQLRepository struct {
	DB *sqlx.DB
}

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{DB: db}
}

func (r *SQLRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	q := database.Executor(ctx, r.DB)

	var user model.User
	err := q.GetContext(ctx, &user, q.Rebind(`SELECT * FROM users WHERE username = ?`), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *SQLRepository) Create(ctx context.Context, user *model.User) error {
	q := database.Executor(ctx, r.DB)

	query, args, err := q.BindNamed(`
        INSERT INTO users (username, password_hash, role, created_at)
        VALUES (:username, :password_hash, :role, :created_at)
        RETURNING id
    `, user)
	if err != nil {
		return err
	}
	return q.QueryRowxContext(ctx, query, args...).Scan(&user.ID)
}

func (r *SQLRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := database.Executor(ctx, r.DB).GetContext(ctx, &count, `SELECT count(*) FROM users`)
	return count, err
}
