// Package logger provides the leveled, severity-tagged logger used
// throughout scfs, built directly on log/slog the way gcsfuse's own
// internal/logger package is: a small custom slog.Handler that renders a
// "severity" field instead of slog's default "level", in either text or
// JSON form, plus package-level helpers so call sites never hold a *slog.Logger.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Severity mirrors the TRACE/DEBUG/INFO/WARNING/ERROR ladder gcsfuse logs
// use. TRACE and DEBUG have no slog.Level equivalents, so they are modeled
// as levels below slog.LevelDebug.
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelOff   = slog.Level(64)
)

func severityName(l slog.Level) string {
	switch {
	case l < LevelDebug:
		return "TRACE"
	case l < LevelInfo:
		return "DEBUG"
	case l < LevelWarn:
		return "INFO"
	case l < LevelError:
		return "WARNING"
	default:
		return "ERROR"
	}
}

// ParseLevel converts a config string ("trace", "debug", "info", "warning",
// "error", "off", case-insensitively) into a slog.Level. Unrecognized values
// fall back to LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "info", "":
		return LevelInfo
	case "warning", "warn":
		return LevelWarn
	case "error":
		return LevelError
	case "off":
		return LevelOff
	default:
		return LevelInfo
	}
}

type severityHandler struct {
	out    io.Writer
	level  *slog.LevelVar
	json   bool
	prefix string
}

func newHandler(out io.Writer, level *slog.LevelVar, jsonFormat bool) *severityHandler {
	return &severityHandler{out: out, level: level, json: jsonFormat}
}

func (h *severityHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *severityHandler) Handle(_ context.Context, r slog.Record) error {
	msg := h.prefix + r.Message
	if h.json {
		type jsonLine struct {
			Timestamp struct {
				Seconds int64 `json:"seconds"`
				Nanos   int   `json:"nanos"`
			} `json:"timestamp"`
			Severity string `json:"severity"`
			Message  string `json:"message"`
		}
		var line jsonLine
		line.Timestamp.Seconds = r.Time.Unix()
		line.Timestamp.Nanos = r.Time.Nanosecond()
		line.Severity = severityName(r.Level)
		line.Message = msg
		_, err := fmt.Fprintf(h.out,
			"{\"timestamp\":{\"seconds\":%d,\"nanos\":%d},\"severity\":%q,\"message\":%q}\n",
			line.Timestamp.Seconds, line.Timestamp.Nanos, line.Severity, line.Message)
		return err
	}

	_, err := fmt.Fprintf(h.out, "time=%q severity=%s message=%q\n",
		r.Time.Format("02/01/2006 15:04:05.000000"), severityName(r.Level), msg)
	return err
}

func (h *severityHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *severityHandler) WithGroup(_ string) slog.Handler      { return h }

type loggerFactory struct {
	format string
	level  *slog.LevelVar
	prefix string
}

func (f *loggerFactory) build(out io.Writer) *slog.Logger {
	h := newHandler(out, f.level, f.format == "json")
	h.prefix = f.prefix
	return slog.New(h)
}

var (
	defaultFactory = &loggerFactory{format: "text", level: &slog.LevelVar{}}
	defaultLogger  = defaultFactory.build(os.Stderr)
)

// Config controls the process-wide logger built by Init.
type Config struct {
	Format string // "text" or "json"
	Level  string // trace|debug|info|warning|error|off
	Writer io.Writer
}

// Init replaces the process-wide logger. Call once at startup from cmd.
func Init(cfg Config) {
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}
	defaultFactory = &loggerFactory{format: cfg.Format, level: &slog.LevelVar{}}
	defaultFactory.level.Set(ParseLevel(cfg.Level))
	defaultLogger = defaultFactory.build(cfg.Writer)
}

func log(level slog.Level, msg string) {
	defaultLogger.Log(context.Background(), level, msg)
}

func Tracef(format string, args ...any) { log(LevelTrace, fmt.Sprintf(format, args...)) }
func Debugf(format string, args ...any) { log(LevelDebug, fmt.Sprintf(format, args...)) }
func Infof(format string, args ...any)  { log(LevelInfo, fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...any)  { log(LevelWarn, fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...any) { log(LevelError, fmt.Sprintf(format, args...)) }

func Trace(msg string) { log(LevelTrace, msg) }
func Debug(msg string) { log(LevelDebug, msg) }
func Info(msg string)  { log(LevelInfo, msg) }
func Warn(msg string)  { log(LevelWarn, msg) }
func Error(msg string) { log(LevelError, msg) }

// Elapsed logs how long a named operation took, the way gcsfuse logs
// mount/sync timings.
func Elapsed(op string, start time.Time) {
	Infof("%s took %s", op, time.Since(start))
}
