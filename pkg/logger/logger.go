package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with typed fields and an optional error-log
// collector that aggregates repeated errors for publishing.
type Logger struct {
	zl        zerolog.Logger
	collector *LogCollector
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or a file path
	TimeFormat string // defaults to RFC3339Nano
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer
	switch cfg.Output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
	}

	tf := cfg.TimeFormat
	if tf == "" {
		tf = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = tf

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: tf}
	}

	zl := zerolog.New(out).With().Timestamp().CallerWithSkipFrameCount(3).Logger()
	return &Logger{zl: zl}, nil
}

func (l *Logger) Debug(msg string, fields ...Field) { l.emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.emit(l.zl.Info(), msg, fields) }

func (l *Logger) Warn(msg string, fields ...Field) {
	l.emit(l.zl.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.emit(l.zl.Error(), msg, fields)
	l.collect("error", msg, fields)
}

func (l *Logger) emit(ev *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		f.write(ev)
	}
	ev.Msg(msg)
}

// collect forwards the log to the aggregating collector, if attached.
func (l *Logger) collect(level, msg string, fields []Field) {
	if l.collector == nil {
		return
	}
	caller := "unknown"
	if _, file, line, ok := runtime.Caller(2); ok {
		if i := strings.Index(file, "MarketMind"); i >= 0 {
			file = file[i+len("MarketMind"):]
		}
		caller = fmt.Sprintf("%s:%d", file, line)
	}
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	l.collector.Add(level, msg, m, caller)
}

// AttachCollector starts aggregating error logs for periodic publishing.
// Any previously attached collector is closed first.
func (l *Logger) AttachCollector(cfg *CollectionConfig) {
	if l.collector != nil {
		l.collector.Close()
	}
	l.collector = NewLogCollector(cfg)
}

// DetachCollector stops and flushes the attached collector.
func (l *Logger) DetachCollector() {
	if l.collector != nil {
		l.collector.Close()
		l.collector = nil
	}
}

// Field is one structured key/value pair. The write func keeps zerolog's
// typed event methods without a type switch per log call.
type Field struct {
	Key   string
	Value any
	write func(*zerolog.Event)
}

func String(key, value string) Field {
	return Field{Key: key, Value: value, write: func(ev *zerolog.Event) { ev.Str(key, value) }}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value, write: func(ev *zerolog.Event) { ev.Int(key, value) }}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value, write: func(ev *zerolog.Event) { ev.Int64(key, value) }}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value, write: func(ev *zerolog.Event) { ev.Float64(key, value) }}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value, write: func(ev *zerolog.Event) { ev.Bool(key, value) }}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String(), write: func(ev *zerolog.Event) { ev.Dur(key, value) }}
}

func Strings(key string, value []string) Field {
	return Field{Key: key, Value: value, write: func(ev *zerolog.Event) { ev.Strs(key, value) }}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value, write: func(ev *zerolog.Event) { ev.Interface(key, value) }}
}

func Error(err error) Field {
	var v any
	if err != nil {
		v = err.Error()
	}
	return Field{Key: "error", Value: v, write: func(ev *zerolog.Event) { ev.Err(err) }}
}
