package event

import (
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/harryhq/mail-manager/internal/handler"
	"github.com/harryhq/mail-manager/pkg/model"
)

func NewHandler(logger *slog.Logger, broker broker) Handler {
	return Handler{logger, broker}
}

type Handler struct {
	logger *slog.Logger
	broker broker
}

type broker interface {
	Subscribe(user model.User)
	Unsubscribe(id uint)
	Receive(id uint) (Event, bool)
}

func (h Handler) Subscribe(c *gin.Context) {
	// swagger:route GET /subscribe subscribeToEvents
	//
	// Subscribe to events
	//
	// Stream email message events to the client using server-sent events. An event is
	// delivered to the user the underlying email message belongs to.
	//
	// responses:
	//   200: EventStream
	//   401: Error
	//   415: Error
	//
	// security:
	//   oauth2:
	user, err := handler.GetUserFromContext(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.broker.Subscribe(*user)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Transfer-Encoding", "chunked")

	defer h.broker.Unsubscribe(user.ID)

	go func() {
		<-c.Done()
		h.broker.Unsubscribe(user.ID)
		h.logger.Debug("Event subscriber disconnected", "user", user.ID)
	}()

	c.Stream(func(w io.Writer) bool {
		if event, ok := h.broker.Receive(user.ID); ok {
			c.SSEvent(event.Type, event.Message)
			return true
		}
		return false
	})
}
