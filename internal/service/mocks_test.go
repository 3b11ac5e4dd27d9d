package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bookshelf/internal/domain"
	"bookshelf/internal/repository"
)

type mockUserRepo struct {
	mu        sync.Mutex
	byID      map[int64]*domain.User
	byName    map[string]*domain.User
	nextID    int64
	createErr error
	getErr    error
	creates   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		byID:   make(map[int64]*domain.User),
		byName: make(map[string]*domain.User),
	}
}

func (m *mockUserRepo) Init(ctx context.Context) error { return nil }

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return 0, m.createErr
	}
	if _, ok := m.byName[user.Username]; ok {
		return 0, fmt.Errorf("insert user: %w", repository.ErrAlreadyExists)
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.byID[stored.ID] = &stored
	m.byName[stored.Username] = &stored
	return stored.ID, nil
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	user, ok := m.byName[username]
	if !ok {
		return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
	}
	cp := *user
	return &cp, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
	}
	cp := *user
	return &cp, nil
}

type mockBookRepo struct {
	mu        sync.Mutex
	books     []domain.Book
	nextID    int64
	createErr error
	listErr   error
}

func (m *mockBookRepo) Init(ctx context.Context) error { return nil }

func (m *mockBookRepo) Create(ctx context.Context, book *domain.Book) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return 0, m.createErr
	}
	m.nextID++
	book.ID = m.nextID
	m.books = append(m.books, *book)
	return book.ID, nil
}

func (m *mockBookRepo) List(ctx context.Context) ([]domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]domain.Book(nil), m.books...), nil
}

func (m *mockBookRepo) Delete(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, book := range m.books {
		if book.ID == id {
			m.books = append(m.books[:i], m.books[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
