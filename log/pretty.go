package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Styles used by the pretty handler.
var (
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	stringStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	numberStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	trueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	falseStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	levelStyle  = map[Level]lipgloss.Style{
		LevelTrace: lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
		LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
)

// prettyHandler writes colorized records, either on a single line of
// key=value pairs or as an indented multi-line object.
type prettyHandler struct {
	opts       slog.HandlerOptions
	formatTime FormatTime
	multiline  bool
	mu         *sync.Mutex
	w          io.Writer
	attrs      []slog.Attr
	groups     []string
}

func newPrettyHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	formatTime FormatTime,
	multiline bool,
) *prettyHandler {
	return &prettyHandler{
		opts:       *opts,
		formatTime: formatTime,
		multiline:  multiline,
		mu:         &sync.Mutex{},
		w:          w,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	first := true

	if !r.Time.IsZero() {
		if ts := h.formatTime(r.Time); ts != "" {
			h.writeField(&buf, slog.TimeKey, timeStyle.Render(ts), &first)
		}
	}

	level := Level(r.Level)
	style, ok := levelStyle[level]
	if !ok {
		style = stringStyle
	}

	h.writeField(&buf, slog.LevelKey,
		style.Render(strings.ToUpper(level.String())), &first)

	if h.opts.AddSource {
		if src := r.Source(); src != nil && src.File != "" {
			h.writeField(&buf, slog.SourceKey,
				stringStyle.Render(src.File+":"+strconv.Itoa(src.Line)), &first)
		}
	}

	h.writeField(&buf, slog.MessageKey, stringStyle.Render(r.Message), &first)

	for _, a := range h.attrs {
		h.writeAttr(&buf, "", a, &first)
	}

	prefix := strings.Join(h.groups, ".")

	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&buf, prefix, a, &first)

		return true
	})

	if h.multiline {
		buf.WriteString("\n}")
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := strings.Join(h.groups, ".")

	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)

	for _, a := range attrs {
		if prefix != "" {
			a.Key = prefix + "." + a.Key
		}

		next.attrs = append(next.attrs, a)
	}

	return &next
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	next := *h
	next.groups = append(h.groups[:len(h.groups):len(h.groups)], name)

	return &next
}

func (h *prettyHandler) writeAttr(
	buf *bytes.Buffer,
	prefix string,
	a slog.Attr,
	first *bool,
) {
	a.Value = a.Value.Resolve()

	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			h.writeAttr(buf, key, ga, first)
		}

		return
	}

	h.writeField(buf, key, renderValue(a.Value), first)
}

func (h *prettyHandler) writeField(
	buf *bytes.Buffer,
	key, value string,
	first *bool,
) {
	switch {
	case h.multiline && *first:
		buf.WriteString("{\n  ")
	case h.multiline:
		buf.WriteString(",\n  ")
	case !*first:
		buf.WriteByte(' ')
	}

	*first = false

	buf.WriteString(keyStyle.Render(key))

	if h.multiline {
		buf.WriteString(": ")
	} else {
		buf.WriteByte('=')
	}

	buf.WriteString(value)
}

func renderValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return stringStyle.Render(v.String())

	case slog.KindInt64:
		return numberStyle.Render(strconv.FormatInt(v.Int64(), 10))

	case slog.KindUint64:
		return numberStyle.Render(strconv.FormatUint(v.Uint64(), 10))

	case slog.KindFloat64:
		return numberStyle.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))

	case slog.KindBool:
		if v.Bool() {
			return trueStyle.Render("true")
		}

		return falseStyle.Render("false")

	case slog.KindDuration:
		return numberStyle.Render(v.Duration().String())

	case slog.KindTime:
		return timeStyle.Render(v.Time().String())

	default:
		return stringStyle.Render(fmt.Sprint(v.Any()))
	}
}
