package service

import (
	"context"
	"fmt"
	"strings"

	"bookshelf/internal/domain"
	"bookshelf/internal/repository"
)

// BookService coordinates catalog operations backed by a BookRepository.
type BookService interface {
	ListBooks(ctx context.Context) ([]domain.Book, error)
	CreateBook(ctx context.Context, title, author string) (*domain.Book, error)
	// DeleteBook is idempotent: it reports whether the book existed but never fails for a missing id.
	DeleteBook(ctx context.Context, id int64) (bool, error)
}

type bookService struct {
	books repository.BookRepository
}

func NewBookService(books repository.BookRepository) BookService {
	return &bookService{books: books}
}

func (s *bookService) ListBooks(ctx context.Context) ([]domain.Book, error) {
	books, err := s.books.List(ctx)
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []domain.Book{}
	}
	return books, nil
}

func (s *bookService) CreateBook(ctx context.Context, title, author string) (*domain.Book, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if author == "" {
		return nil, fmt.Errorf("%w: author is required", ErrValidation)
	}

	book := &domain.Book{Title: title, Author: author}
	if _, err := s.books.Create(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (s *bookService) DeleteBook(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, fmt.Errorf("%w: invalid book id", ErrValidation)
	}
	return s.books.Delete(ctx, id)
}
