package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookService_CreateListDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewBookService(&mockBookRepo{})

	books, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)

	book, err := svc.CreateBook(ctx, " The Hobbit ", "J.R.R. Tolkien")
	require.NoError(t, err)
	assert.Equal(t, int64(1), book.ID)
	assert.Equal(t, "The Hobbit", book.Title)

	books, err = svc.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)

	existed, err := svc.DeleteBook(ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = svc.DeleteBook(ctx, book.ID)
	require.NoError(t, err, "deleting a missing book is a no-op")
	assert.False(t, existed)
}

func TestBookService_Validation(t *testing.T) {
	ctx := context.Background()
	repo := &mockBookRepo{}
	svc := NewBookService(repo)

	_, err := svc.CreateBook(ctx, "", "Author")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.CreateBook(ctx, "Title", "  ")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, repo.books)

	_, err = svc.DeleteBook(ctx, 0)
	assert.ErrorIs(t, err, ErrValidation)
}
