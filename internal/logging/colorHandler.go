package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// ColorHandler wraps a slog handler and colors records by level when the
// output is a terminal.
type ColorHandler struct {
	slog.Handler
	out       io.Writer
	isColored bool
}

func NewColorHandler(out io.Writer, opts *slog.HandlerOptions) *ColorHandler {
	isColored := false
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		isColored = true
	}

	return &ColorHandler{
		Handler:   slog.NewJSONHandler(out, opts),
		out:       out,
		isColored: isColored,
	}
}

func (h *ColorHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.isColored {
		switch r.Level {
		case slog.LevelDebug:
			fmt.Fprintf(h.out, "\033[34m")
		case slog.LevelWarn:
			fmt.Fprintf(h.out, "\033[33m")
		case slog.LevelError:
			fmt.Fprintf(h.out, "\033[31m")
		}
	}

	err := h.Handler.Handle(ctx, r)

	if h.isColored {
		fmt.Fprintf(h.out, "\033[0m")
	}

	return err
}
