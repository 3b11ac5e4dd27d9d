package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookshelf/internal/domain"
	"bookshelf/internal/resolver"
)

const maxRequestBytes = 1 << 20

type graphQLResponse struct {
	Data   any                     `json:"data"`
	Errors []resolver.GraphQLError `json:"errors,omitempty"`
}

// graphql serves every query and mutation. Failures are reported in the
// envelope with status 200.
func (h *Handler) graphql(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBytes))
	if err != nil {
		h.graphQLError(c, err, "")
		return
	}

	req, err := resolver.DecodeRequest(body)
	if err != nil {
		h.graphQLError(c, err, "")
		return
	}

	data, err := h.resolver.Dispatch(c.Request.Context(), req)
	if err != nil {
		h.graphQLError(c, err, req.OperationName)
		return
	}
	c.JSON(http.StatusOK, graphQLResponse{Data: gin.H{req.OperationName: data}})
}

func (h *Handler) graphQLError(c *gin.Context, err error, operation string) {
	if resolver.CodeOf(err) == resolver.CodeInternal {
		h.logger.WithError(err).WithField("operation", operation).Error("operation failed")
	}

	var gqlErr resolver.GraphQLError
	if operation == "" {
		gqlErr = resolver.NewGraphQLError(err)
	} else {
		gqlErr = resolver.NewGraphQLError(err, operation)
	}
	c.JSON(http.StatusOK, graphQLResponse{Errors: []resolver.GraphQLError{gqlErr}})
}

// graphqlBookAdded serves the bookAdded subscription, one envelope per event.
func (h *Handler) graphqlBookAdded(c *gin.Context) {
	h.streamBooks(c, func(book domain.Book) any {
		return graphQLResponse{Data: gin.H{resolver.OpBookAdded: book}}
	})
}
