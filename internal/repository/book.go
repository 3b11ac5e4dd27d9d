package repository

import (
	"context"

	"bookshelf/internal/domain"
)

// BookRepository exposes persistence operations for the book catalog.
type BookRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, book *domain.Book) (int64, error)
	// List returns every book in insertion order.
	List(ctx context.Context) ([]domain.Book, error)
	// Delete removes the book and reports whether a row existed.
	Delete(ctx context.Context, id int64) (bool, error)
}
