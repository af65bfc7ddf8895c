package log

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

type PrettyJSONHandlerOptions struct {
	slog.HandlerOptions
	PrettyPrint bool
}

// NewPrettyJSONHandler returns a JSON handler for development use. With PrettyPrint enabled
// every record is written indented, without it the handler behaves like slog.NewJSONHandler.
func NewPrettyJSONHandler(w io.Writer, opts *PrettyJSONHandlerOptions) slog.Handler {
	if opts == nil {
		opts = &PrettyJSONHandlerOptions{}
	}
	if !opts.PrettyPrint {
		return slog.NewJSONHandler(w, &opts.HandlerOptions)
	}

	buf := &bytes.Buffer{}
	return &prettyHandler{
		jsonHandler: slog.NewJSONHandler(buf, &opts.HandlerOptions),
		mu:          &sync.Mutex{},
		buf:         buf,
		writer:      w,
	}
}

// prettyHandler indents every record the wrapped JSON handler produces. The buffer and mutex are
// shared with the handlers WithAttrs and WithGroup derive so records never interleave.
type prettyHandler struct {
	jsonHandler slog.Handler
	mu          *sync.Mutex
	buf         *bytes.Buffer
	writer      io.Writer
}

func (h *prettyHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.jsonHandler.Enabled(ctx, level)
}

func (h *prettyHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf.Reset()
	if err := h.jsonHandler.Handle(ctx, r); err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, h.buf.Bytes(), "", "  "); err != nil {
		return err
	}

	_, err := h.writer.Write(pretty.Bytes())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyHandler{jsonHandler: h.jsonHandler.WithAttrs(attrs), mu: h.mu, buf: h.buf, writer: h.writer}
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	return &prettyHandler{jsonHandler: h.jsonHandler.WithGroup(name), mu: h.mu, buf: h.buf, writer: h.writer}
}
