package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookshelf/internal/domain"
	"bookshelf/internal/resolver"
)

func (h *Handler) bookEvents(c *gin.Context) {
	h.streamBooks(c, func(book domain.Book) any { return book })
}

// streamBooks holds a bookAdded subscription open as a text/event-stream until
// the client goes away or the bus shuts down.
func (h *Handler) streamBooks(c *gin.Context, frame func(domain.Book) any) {
	ctx := c.Request.Context()
	books, err := h.resolver.BookAdded(ctx)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	log := h.logger.WithField("request_id", requestIDOf(c))
	log.Debug("event stream opened")
	defer log.Debug("event stream closed")

	c.SSEvent("connected", `{"subscription":"bookAdded"}`)
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case book, ok := <-books:
			if !ok {
				return
			}
			payload, err := json.Marshal(frame(book))
			if err != nil {
				log.WithError(err).Warn("encode event")
				continue
			}
			c.SSEvent(resolver.OpBookAdded, string(payload))
			c.Writer.Flush()
		case <-ticker.C:
			if _, err := c.Writer.WriteString(": keepalive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		case <-ctx.Done():
			return
		}
	}
}
