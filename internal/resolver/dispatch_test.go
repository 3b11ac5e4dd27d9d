package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/auth"
	"bookshelf/internal/domain"
)

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"operationName":" addBook ","variables":{"title":"Dune","author":"Frank Herbert"}}`))
	require.NoError(t, err)
	assert.Equal(t, OpAddBook, req.OperationName)
	assert.JSONEq(t, `{"title":"Dune","author":"Frank Herbert"}`, string(req.Variables))

	_, err = DecodeRequest([]byte(`{"variables":{}}`))
	assert.Equal(t, CodeValidation, CodeOf(err))

	_, err = DecodeRequest([]byte(`{not json`))
	assert.Equal(t, CodeValidation, CodeOf(err))
}

func TestDispatch_RoutesByOperationName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.resolver.Dispatch(ctx, Request{
		OperationName: OpRegister,
		Variables:     []byte(`{"username":"admin","password":"admin"}`),
	})
	require.NoError(t, err)
	payload, ok := result.(*AuthPayload)
	require.True(t, ok)
	assert.Equal(t, "admin", payload.Username)

	result, err = f.resolver.Dispatch(ctx, Request{
		OperationName: OpLogin,
		Variables:     []byte(`{"username":"admin","password":"admin"}`),
	})
	require.NoError(t, err)
	token := result.(*AuthPayload).Token

	result, err = f.resolver.Dispatch(withToken(token), Request{
		OperationName: OpAddBook,
		Variables:     []byte(`{"title":"The Hobbit","author":"J.R.R. Tolkien"}`),
	})
	require.NoError(t, err)
	book := result.(*domain.Book)
	assert.Equal(t, int64(1), book.ID)

	result, err = f.resolver.Dispatch(ctx, Request{OperationName: OpBooks})
	require.NoError(t, err)
	assert.Len(t, result.([]domain.Book), 1)

	result, err = f.resolver.Dispatch(withToken(token), Request{
		OperationName: OpDeleteBook,
		Variables:     []byte(`{"id":"1"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "book 1 deleted", result)

	result, err = f.resolver.Dispatch(withToken(token), Request{
		OperationName: OpDeleteBook,
		Variables:     []byte(`{"id":1}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "book 1 deleted", result)
}

func TestDispatch_MalformedVariablesHideDecoderDetail(t *testing.T) {
	f := newFixture(t)
	token, err := f.tokens.Issue(auth.Subject{UserID: 1, Username: "admin"})
	require.NoError(t, err)

	_, err = f.resolver.Dispatch(withToken(token), Request{
		OperationName: OpDeleteBook,
		Variables:     []byte(`{"id":"1x"}`),
	})
	assert.Equal(t, CodeValidation, CodeOf(err))
	assert.Equal(t, "invalid input: malformed variables", MessageOf(err))

	_, err = f.resolver.Dispatch(context.Background(), Request{
		OperationName: OpRegister,
		Variables:     []byte(`{"username":5}`),
	})
	assert.Equal(t, "invalid input: malformed variables", MessageOf(err))
	assert.NotContains(t, MessageOf(err), "unmarshal")

	_, err = DecodeRequest([]byte(`{"operationName":`))
	assert.Equal(t, "invalid input: malformed request body", MessageOf(err))
}

func TestDispatch_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		req      Request
		expected Code
	}{
		{name: "unknown operation", req: Request{OperationName: "updateBook"}, expected: CodeUnknownOperation},
		{name: "subscription over request", req: Request{OperationName: OpBookAdded}, expected: CodeUnknownOperation},
		{name: "bad variables", req: Request{OperationName: OpRegister, Variables: []byte(`{"username":5}`)}, expected: CodeValidation},
		{name: "missing variables", req: Request{OperationName: OpRegister}, expected: CodeValidation},
		{name: "non numeric id without token", req: Request{OperationName: OpDeleteBook, Variables: []byte(`{"id":"abc"}`)}, expected: CodeUnauthenticated},
		{name: "malformed book without token", req: Request{OperationName: OpAddBook, Variables: []byte(`{"title":7}`)}, expected: CodeUnauthenticated},
		{name: "me without token", req: Request{OperationName: OpMe}, expected: CodeUnauthenticated},
		{name: "mutation without token", req: Request{OperationName: OpAddBook, Variables: []byte(`{"title":"a","author":"b"}`)}, expected: CodeUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.resolver.Dispatch(ctx, tt.req)
			assert.Equal(t, tt.expected, CodeOf(err))
		})
	}
}
