package logger

import (
	"context"
	"io"
	"log/slog"
)

// Level colors follow the launcher's log pane palette: errors red,
// warnings yellow, info green, debug dim.
const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorDim    = "\x1b[90m"
)

func levelColor(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return colorRed
	case l >= slog.LevelWarn:
		return colorYellow
	case l >= slog.LevelInfo:
		return colorGreen
	default:
		return colorDim
	}
}

// ColorTextHandler renders the supervisor's own diagnostics as slog text
// lines with a colored level prefix on the message. Attribute formatting is
// left to the embedded TextHandler untouched.
type ColorTextHandler struct {
	*slog.TextHandler
}

// NewColorTextHandler builds the handler. When showTime is false the time
// attribute is stripped, which keeps test output and piped logs stable.
func NewColorTextHandler(w io.Writer, opts *slog.HandlerOptions, showTime bool) *ColorTextHandler {
	var o slog.HandlerOptions
	if opts != nil {
		o = *opts
	}
	if !showTime {
		prev := o.ReplaceAttr
		o.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			if prev != nil {
				return prev(groups, a)
			}
			return a
		}
	}
	return &ColorTextHandler{TextHandler: slog.NewTextHandler(w, &o)}
}

// Handle prefixes the message with the colored level name and delegates.
func (h *ColorTextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.Message = levelColor(r.Level) + r.Level.String() + colorReset + " " + r.Message
	return h.TextHandler.Handle(ctx, r)
}
