package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"bookshelf/internal/domain"
	"bookshelf/internal/repository"
)

// AUTOINCREMENT keeps ids of deleted books from being handed out again.
const createBooksTable = `
CREATE TABLE IF NOT EXISTS books (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`

type BookRepository struct {
	db *sqlx.DB
}

func NewBookRepository(db *sqlx.DB) repository.BookRepository {
	return &BookRepository{db: db}
}

func (r *BookRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createBooksTable); err != nil {
		return fmt.Errorf("create books table: %w", err)
	}
	return nil
}

func (r *BookRepository) Create(ctx context.Context, book *domain.Book) (int64, error) {
	book.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO books (title, author, created_at)
VALUES (?, ?, ?)`,
		book.Title,
		book.Author,
		book.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("book last insert id: %w", err)
	}
	book.ID = id
	return id, nil
}

func (r *BookRepository) List(ctx context.Context) ([]domain.Book, error) {
	books := []domain.Book{}
	if err := r.db.SelectContext(ctx, &books, `
SELECT id, title, author, created_at
FROM books
ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	return books, nil
}

func (r *BookRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete book: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("book delete rows affected: %w", err)
	}
	return aff > 0, nil
}
