package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// attrString renders v unquoted, for use outside key=value pairs.
func attrString(v slog.Value) string {
	v = v.Resolve()
	if v.Kind() == slog.KindString {
		return v.String()
	}
	if err, ok := v.Any().(error); ok && v.Kind() == slog.KindAny {
		return err.Error()
	}
	return strings.Trim(formatValue(v), `"`)
}

func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().In(time.Local).Format(consoleTimeLayout)
	case slog.KindAny:
		return formatAny(v.Any())
	}
	return quote(v.String())
}

func formatAny(value any) string {
	switch val := value.(type) {
	case error:
		return quote(val.Error())
	case []float64:
		// Embeddings are hundreds of values wide; print the shape only.
		return fmt.Sprintf("[%d]float64", len(val))
	case []float32:
		return fmt.Sprintf("[%d]float32", len(val))
	case []string:
		return quote(strings.Join(val, ","))
	}
	return quote(fmt.Sprint(value))
}

// quote wraps s in Go quotes when it would not survive key=value splitting.
func quote(s string) string {
	if s == "" || strings.ContainsAny(s, ` ="`) || strings.IndexFunc(s, func(r rune) bool { return r < ' ' }) >= 0 {
		return strconv.Quote(s)
	}
	return s
}
