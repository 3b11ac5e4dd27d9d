package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookshelf/internal/domain"
	"bookshelf/internal/repository"
)

const (
	tableUsers = "users"

	createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`
)

var userColumns = []any{"id", "username", "password_hash", "created_at", "updated_at"}

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query, args, err := buildInsertUser(user)
	if err != nil {
		return 0, err
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert user %q: %w", user.Username, repository.ErrAlreadyExists)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return user.ID, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, goqu.Ex{"username": username})
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, goqu.Ex{"id": id})
}

func (r *UserRepository) getOne(ctx context.Context, where goqu.Ex) (*domain.User, error) {
	query, args, err := buildSelectUser(where)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[domain.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}

func buildInsertUser(user *domain.User) (string, []any, error) {
	query, args, err := builder.Insert(tableUsers).
		Rows(goqu.Record{
			"username":      user.Username,
			"password_hash": user.PasswordHash,
			"created_at":    user.CreatedAt,
			"updated_at":    user.UpdatedAt,
		}).
		Returning("id").
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build insert user query: %w", err)
	}
	return query, args, nil
}

func buildSelectUser(where goqu.Ex) (string, []any, error) {
	query, args, err := builder.From(tableUsers).
		Select(userColumns...).
		Where(where).
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build select user query: %w", err)
	}
	return query, args, nil
}
