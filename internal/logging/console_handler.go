package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const consoleTimeLayout = "2006-01-02 15:04:05"

// field is one flattened key=value pair; group names are folded into key.
type field struct {
	key   string
	value slog.Value
}

// prettyHandler writes one "<time> <LEVEL> <component>: <msg> k=v" line per
// record. Attrs bound through WithAttrs are flattened once, when bound.
type prettyHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     slog.Leveler
	addSource bool

	component string
	bound     []field
	group     string
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{mu: new(sync.Mutex), w: w, level: lvl, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	component := h.component
	fields := make([]field, 0, len(h.bound)+record.NumAttrs())
	fields = append(fields, h.bound...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = collectField(fields, &component, h.group, attr)
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	b.WriteString(ts.In(time.Local).Format(consoleTimeLayout))
	b.WriteByte(' ')
	b.WriteString(levelLabel(record.Level))
	b.WriteByte(' ')
	if component != "" {
		b.WriteString(component)
		b.WriteString(": ")
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(msg)

	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			b.WriteString(" [")
			b.WriteString(filepath.Base(src.File))
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(src.Line))
			b.WriteByte(']')
		}
	}
	for _, f := range fields {
		b.WriteByte(' ')
		b.WriteString(f.key)
		b.WriteByte('=')
		b.WriteString(formatValue(f.value))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.bound = append([]field(nil), h.bound...)
	for _, attr := range attrs {
		next.bound = collectField(next.bound, &next.component, h.group, attr)
	}
	return &next
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = joinKey(h.group, name)
	return &next
}

// collectField appends attr (recursing into groups) to dst. The first
// component attr seen at the top level is lifted into *component instead.
func collectField(dst []field, component *string, group string, attr slog.Attr) []field {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		sub := joinKey(group, attr.Key)
		for _, inner := range attr.Value.Group() {
			dst = collectField(dst, component, sub, inner)
		}
		return dst
	}
	if group == "" && attr.Key == FieldComponent {
		if *component == "" {
			*component = attrString(attr.Value)
		}
		return dst
	}
	key := joinKey(group, attr.Key)
	if key == "" {
		return dst
	}
	return append(dst, field{key: key, value: attr.Value})
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}
