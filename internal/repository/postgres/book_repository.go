package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookshelf/internal/domain"
	"bookshelf/internal/repository"
)

const (
	tableBooks = "books"

	createBooksTable = `
CREATE TABLE IF NOT EXISTS books (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`
)

type BookRepository struct {
	pool *pgxpool.Pool
}

func NewBookRepository(pool *pgxpool.Pool) repository.BookRepository {
	return &BookRepository{pool: pool}
}

func (r *BookRepository) Init(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createBooksTable); err != nil {
		return fmt.Errorf("create books table: %w", err)
	}
	return nil
}

func (r *BookRepository) Create(ctx context.Context, book *domain.Book) (int64, error) {
	book.CreatedAt = time.Now().UTC()

	query, args, err := buildInsertBook(book)
	if err != nil {
		return 0, err
	}
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&book.ID); err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}
	return book.ID, nil
}

func (r *BookRepository) List(ctx context.Context) ([]domain.Book, error) {
	query, args, err := buildListBooks()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	books, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Book])
	if err != nil {
		return nil, fmt.Errorf("scan books: %w", err)
	}
	if books == nil {
		books = []domain.Book{}
	}
	return books, nil
}

func (r *BookRepository) Delete(ctx context.Context, id int64) (bool, error) {
	query, args, err := buildDeleteBook(id)
	if err != nil {
		return false, err
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete book: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func buildInsertBook(book *domain.Book) (string, []any, error) {
	query, args, err := builder.Insert(tableBooks).
		Rows(goqu.Record{
			"title":      book.Title,
			"author":     book.Author,
			"created_at": book.CreatedAt,
		}).
		Returning("id").
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build insert book query: %w", err)
	}
	return query, args, nil
}

func buildListBooks() (string, []any, error) {
	query, args, err := builder.From(tableBooks).
		Select("id", "title", "author", "created_at").
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build list books query: %w", err)
	}
	return query, args, nil
}

func buildDeleteBook(id int64) (string, []any, error) {
	query, args, err := builder.Delete(tableBooks).
		Where(goqu.Ex{"id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build delete book query: %w", err)
	}
	return query, args, nil
}
