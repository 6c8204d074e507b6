package logger

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Liszten/kpiComp/pkg/config"
)

// Logger is a structured logger wrapper around zerolog
// ⭐ SSOT: 모든 로깅은 이 패키지를 통해서만 수행
type Logger struct {
	zlog zerolog.Logger
}

// serviceName tags every log line
const serviceName = "kpicomp"

// Field names shared by the rating pipeline
const (
	FieldTicker   = "ticker"
	FieldSector   = "sector"
	FieldPeer     = "peer"
	FieldJob      = "job"
	FieldDuration = "duration_ms"
)

// NewWithWriter creates a logger on w.
// One-shot CLI commands log to stderr so stdout carries only their output.
// The level applies to this logger only; no global zerolog state is touched.
func NewWithWriter(w io.Writer, cfg *config.Config) *Logger {
	if cfg.LogFormat == "console" || cfg.LogFormat == "pretty" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	zctx := zerolog.New(w).
		Level(parseLogLevel(cfg.LogLevel)).
		With().
		Timestamp().
		Str("service", serviceName)
	if cfg.Env != "" {
		zctx = zctx.Str("env", cfg.Env)
	}

	return &Logger{zlog: zctx.Logger()}
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// parseLogLevel converts string log level to zerolog.Level
func parseLogLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) {
	l.zlog.Debug().Msg(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string) {
	l.zlog.Info().Msg(msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) {
	l.zlog.Warn().Msg(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string) {
	l.zlog.Error().Msg(msg)
}

// WithField returns a new logger with an additional field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Interface(key, value).Logger()}
}

// WithFields returns a new logger with multiple fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Fields(fields).Logger()}
}

// WithError returns a new logger with an error field
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zlog: l.zlog.With().Err(err).Logger()}
}

// WithTicker tags the analysed ticker
func (l *Logger) WithTicker(ticker string) *Logger {
	return &Logger{zlog: l.zlog.With().Str(FieldTicker, ticker).Logger()}
}

// WithSector tags the sector being loaded or rated
func (l *Logger) WithSector(sector string) *Logger {
	return &Logger{zlog: l.zlog.With().Str(FieldSector, sector).Logger()}
}

// WithPeer tags one peer of the sector fan-out
func (l *Logger) WithPeer(ticker string) *Logger {
	return &Logger{zlog: l.zlog.With().Str(FieldPeer, ticker).Logger()}
}

// WithJob tags a scheduler job
func (l *Logger) WithJob(name string) *Logger {
	return &Logger{zlog: l.zlog.With().Str(FieldJob, name).Logger()}
}

// WithDuration records elapsed time in milliseconds
func (l *Logger) WithDuration(d time.Duration) *Logger {
	return &Logger{zlog: l.zlog.With().Int64(FieldDuration, d.Milliseconds()).Logger()}
}
