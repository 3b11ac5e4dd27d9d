package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"bookshelf/internal/resolver"
)

// DefaultKeepAlive is the interval between comment frames on idle event streams.
const DefaultKeepAlive = 30 * time.Second

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Handler wires HTTP routes to the resolver.
type Handler struct {
	resolver  *resolver.Resolver
	logger    logrus.FieldLogger
	keepAlive time.Duration
}

// Option customises a Handler.
type Option func(*Handler)

// WithKeepAlive overrides DefaultKeepAlive.
func WithKeepAlive(interval time.Duration) Option {
	return func(h *Handler) {
		if interval > 0 {
			h.keepAlive = interval
		}
	}
}

func NewHandler(res *resolver.Resolver, logger logrus.FieldLogger, opts ...Option) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	h := &Handler{
		resolver:  res,
		logger:    logger,
		keepAlive: DefaultKeepAlive,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), corsMiddleware(), authMetadata())

	router.POST("/graphql", h.graphql)
	router.GET("/graphql/subscriptions/bookAdded", h.graphqlBookAdded)

	api := router.Group("/api")
	{
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)
		api.GET("/auth/me", h.me)
		api.GET("/books", h.listBooks)
		api.POST("/books", h.createBook)
		api.DELETE("/books/:id", h.deleteBook)
		api.GET("/books/events", h.bookEvents)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type createBookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	payload, err := h.resolver.Register(c.Request.Context(), resolver.CredentialsInput(req))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payload)
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	payload, err := h.resolver.Login(c.Request.Context(), resolver.CredentialsInput(req))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (h *Handler) me(c *gin.Context) {
	account, err := h.resolver.Me(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *Handler) listBooks(c *gin.Context) {
	books, err := h.resolver.Books(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *Handler) createBook(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	book, err := h.resolver.AddBook(c.Request.Context(), resolver.BookInput(req))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

func (h *Handler) deleteBook(c *gin.Context) {
	// unparsable ids become 0 and are rejected after authorization
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		id = 0
	}

	msg, err := h.resolver.DeleteBook(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id, "message": msg})
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": resolver.CodeValidation})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	code := resolver.CodeOf(err)
	if code == resolver.CodeInternal {
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(statusOf(code), gin.H{"error": resolver.MessageOf(err), "code": code})
}

func statusOf(code resolver.Code) int {
	switch code {
	case resolver.CodeValidation:
		return http.StatusBadRequest
	case resolver.CodeDuplicateUsername:
		return http.StatusConflict
	case resolver.CodeInvalidCredentials, resolver.CodeUnauthenticated, resolver.CodeInvalidToken:
		return http.StatusUnauthorized
	case resolver.CodeUnknownOperation:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
