package clog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"
)

type TextHandlerConfig struct {
	Color bool
	Level *slog.Level
}

type TextHandlerOption func(*TextHandlerConfig)

func WithColor(c bool) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Color = c
	}
}

func WithLevel(level slog.Level) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Level = &level
	}
}

// TextHandler renders one headline per record (time, level, leading columns,
// message, error) followed by the remaining attributes, one per line.
type TextHandler struct {
	cfg     TextHandlerConfig
	columns []string
	quote   bool
	attrs   []slog.Attr
	mu      *sync.Mutex
	w       io.Writer
}

func newTextHandler(w io.Writer, columns []string, quote bool, opts []TextHandlerOption) *TextHandler {
	cfg := TextHandlerConfig{Color: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &TextHandler{cfg: cfg, columns: columns, quote: quote, mu: &sync.Mutex{}, w: w}
}

// NewConnectTextHandler renders RPC records led by method, stream type and procedure.
func NewConnectTextHandler(w io.Writer, opts ...TextHandlerOption) *TextHandler {
	return newTextHandler(w, []string{"method", "stream_type", "procedure"}, true, opts)
}

// NewHTTPTextHandler renders plain HTTP records led by proto, method, path and status.
func NewHTTPTextHandler(w io.Writer, opts ...TextHandlerOption) *TextHandler {
	return newTextHandler(w, []string{"proto", "method", "path", "status"}, false, opts)
}

func (h *TextHandler) Enabled(_ context.Context, l slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.cfg.Level != nil {
		minLevel = *h.cfg.Level
	}
	return l >= minLevel
}

func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &nh
}

// Groups are flattened.
func (h *TextHandler) WithGroup(_ string) slog.Handler {
	return h
}

func levelColor(l slog.Level) *color.Color {
	switch {
	case l >= slog.LevelError:
		return color.New(color.FgRed)
	case l >= slog.LevelWarn:
		return color.New(color.FgYellow)
	case l >= slog.LevelInfo:
		return color.New(color.FgBlue)
	default:
		return color.New(color.FgCyan)
	}
}

func (h *TextHandler) Handle(_ context.Context, record slog.Record) error {
	buf := bytes.NewBuffer(make([]byte, 0, 1024))
	paint := func(c *color.Color, format string, args ...any) {
		if h.cfg.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		_, _ = c.Fprintf(buf, format, args...)
	}

	plain := color.New()
	paint(plain, "%s ", record.Time.Format(time.RFC3339))
	paint(levelColor(record.Level), "%s ", record.Level)

	kv := map[string]slog.Value{}
	for _, attr := range h.attrs {
		kv[attr.Key] = attr.Value
	}
	record.Attrs(func(attr slog.Attr) bool {
		kv[attr.Key] = attr.Value
		return true
	})
	for _, key := range h.columns {
		if v, ok := kv[key]; ok {
			paint(plain, "%s ", v)
			delete(kv, key)
		}
	}

	green := color.New(color.FgGreen)
	msg := record.Message
	if v, ok := kv["code"]; ok {
		delete(kv, "code")
		msg = fmt.Sprintf("[%s] %s", v, msg)
	}
	if h.quote {
		msg = `"` + msg + `"`
	}
	paint(green, "%s", msg)
	if e, ok := kv[ErrorAttributeKey]; ok {
		delete(kv, ErrorAttributeKey)
		paint(color.New(color.FgRed), " %q", e.String())
	}
	buf.WriteByte('\n')

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		paint(plain, "    %s=%s\n", k, kv[k])
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}
