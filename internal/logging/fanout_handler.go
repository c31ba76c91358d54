package logging

import (
	"context"
	"log/slog"
)

// withLogFile tees primary into a JSON handler appending to path. The file
// branch records everything from debug up, whatever primary's level is.
func withLogFile(primary slog.Handler, path string) (slog.Handler, error) {
	file, err := openLogFile(path)
	if err != nil {
		return nil, err
	}
	debug := new(slog.LevelVar)
	debug.Set(slog.LevelDebug)
	return &fanoutHandler{primary: primary, file: newJSONHandler(file, debug, true)}, nil
}

// fanoutHandler sends each record to the stderr handler and the log file
// handler, each filtering by its own level.
type fanoutHandler struct {
	primary slog.Handler
	file    slog.Handler
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.primary.Enabled(ctx, level) || h.file.Enabled(ctx, level)
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var primaryErr error
	if h.primary.Enabled(ctx, record.Level) {
		primaryErr = h.primary.Handle(ctx, record.Clone())
	}
	if !h.file.Enabled(ctx, record.Level) {
		return primaryErr
	}
	if err := h.file.Handle(ctx, record); err != nil && primaryErr == nil {
		return err
	}
	return primaryErr
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &fanoutHandler{primary: h.primary.WithAttrs(attrs), file: h.file.WithAttrs(attrs)}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	return &fanoutHandler{primary: h.primary.WithGroup(name), file: h.file.WithGroup(name)}
}
