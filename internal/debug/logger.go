package debug

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func fromSlogLevel(l slog.Level) Level {
	switch {
	case l < slog.LevelInfo:
		return LevelDebug
	case l < slog.LevelWarn:
		return LevelInfo
	case l < slog.LevelError:
		return LevelWarn
	default:
		return LevelError
	}
}

// ComponentKey is the attribute carrying the component name.
const ComponentKey = "component"

// Logger is the structured, leveled logger handed to walkers, monitors and
// orchestrators. Logging is telemetry only and never fails the caller.
// kv is a flat list of alternating keys and values.
type Logger interface {
	Debug(component, msg string, kv ...any)
	Info(component, msg string, kv ...any)
	Warn(component, msg string, kv ...any)
	Error(component, msg string, kv ...any)
}

// SlogLogger adapts a *slog.Logger to Logger. The component travels as the
// ComponentKey attribute.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps l.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

// NewLogger writes entries at or above minLevel to w, one line each:
//
//	2026-01-02T15:04:05Z [WARN:WALK] skipping file path=/x size=12
//
// Debug entries are also emitted whenever IsDebugEnabled reports true.
func NewLogger(w io.Writer, minLevel Level) *SlogLogger {
	return NewSlogLogger(slog.New(NewLineHandler(w, minLevel)))
}

func (s *SlogLogger) Debug(component, msg string, kv ...any) { s.log(LevelDebug, component, msg, kv) }
func (s *SlogLogger) Info(component, msg string, kv ...any)  { s.log(LevelInfo, component, msg, kv) }
func (s *SlogLogger) Warn(component, msg string, kv ...any)  { s.log(LevelWarn, component, msg, kv) }
func (s *SlogLogger) Error(component, msg string, kv ...any) { s.log(LevelError, component, msg, kv) }

func (s *SlogLogger) log(level Level, component, msg string, kv []any) {
	if s == nil || s.l == nil {
		return
	}
	s.l.Log(context.Background(), level.slogLevel(), msg, append([]any{ComponentKey, component}, kv...)...)
}

// LineHandler is a slog.Handler writing the "[LEVEL:COMPONENT]" line format.
type LineHandler struct {
	mu       *sync.Mutex
	w        io.Writer
	minLevel Level
	attrs    []slog.Attr
	group    string
	now      func() time.Time
}

// NewLineHandler creates a handler writing to w.
func NewLineHandler(w io.Writer, minLevel Level) *LineHandler {
	return &LineHandler{mu: &sync.Mutex{}, w: w, minLevel: minLevel}
}

func (h *LineHandler) Enabled(_ context.Context, l slog.Level) bool {
	if h.w == nil {
		return false
	}
	level := fromSlogLevel(l)
	return level >= h.minLevel || (level == LevelDebug && IsDebugEnabled())
}

func (h *LineHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time
	if h.now != nil {
		ts = h.now()
	}

	component := ""
	var fields []slog.Attr
	for _, a := range h.attrs {
		if a.Key == ComponentKey && component == "" {
			component = a.Value.String()
			continue
		}
		fields = append(fields, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == ComponentKey && component == "" {
			component = a.Value.String()
			return true
		}
		fields = append(fields, h.qualify(a))
		return true
	})

	var b strings.Builder
	b.WriteString(ts.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, " [%s:%s] %s", fromSlogLevel(r.Level), component, r.Message)
	for _, a := range fields {
		s := a.Value.String()
		if strings.ContainsAny(s, " \t\n\"") {
			s = fmt.Sprintf("%q", s)
		}
		fmt.Fprintf(&b, " %s=%s", a.Key, s)
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// qualify prefixes a's key with the open group. The component key is
// never grouped.
func (h *LineHandler) qualify(a slog.Attr) slog.Attr {
	if h.group != "" && a.Key != ComponentKey {
		a.Key = h.group + "." + a.Key
	}
	return a
}

func (h *LineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		c.attrs = append(c.attrs, h.qualify(a))
	}
	return &c
}

func (h *LineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	if c.group != "" {
		name = c.group + "." + name
	}
	c.group = name
	return &c
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, ...any) {}
func (nopLogger) Info(string, string, ...any)  {}
func (nopLogger) Warn(string, string, ...any)  {}
func (nopLogger) Error(string, string, ...any) {}

// Nop returns a logger that discards everything.
func Nop() Logger { return nopLogger{} }

// OrNop returns l, or a discarding logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// Entry is a captured log entry.
type Entry struct {
	Level     Level
	Component string
	Message   string
	Fields    map[string]any
}

// Recorder captures entries in memory. It is both a Logger and a
// slog.Handler, so code logging through slog can be asserted on too. Safe
// for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Debug(component, msg string, kv ...any) { r.add(LevelDebug, component, msg, kv) }
func (r *Recorder) Info(component, msg string, kv ...any)  { r.add(LevelInfo, component, msg, kv) }
func (r *Recorder) Warn(component, msg string, kv ...any)  { r.add(LevelWarn, component, msg, kv) }
func (r *Recorder) Error(component, msg string, kv ...any) { r.add(LevelError, component, msg, kv) }

func (r *Recorder) add(level Level, component, msg string, kv []any) {
	fields := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	r.record(Entry{Level: level, Component: component, Message: msg, Fields: fields})
}

func (r *Recorder) record(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *Recorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	e := Entry{Level: fromSlogLevel(rec.Level), Message: rec.Message, Fields: make(map[string]any, rec.NumAttrs())}
	rec.Attrs(func(a slog.Attr) bool {
		if a.Key == ComponentKey {
			e.Component = a.Value.String()
			return true
		}
		e.Fields[a.Key] = a.Value.Any()
		return true
	})
	r.record(e)
	return nil
}

// WithAttrs and WithGroup are not tracked; recorded entries hold record
// attributes only.
func (r *Recorder) WithAttrs([]slog.Attr) slog.Handler { return r }
func (r *Recorder) WithGroup(string) slog.Handler      { return r }

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Filter returns recorded entries matching level and message.
func (r *Recorder) Filter(level Level, msg string) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level == level && e.Message == msg {
			out = append(out, e)
		}
	}
	return out
}

// Reset discards recorded entries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
