// internal/logging/logging.go
// Package logging owns the process-wide zerolog logger. Events go to stdout
// through a console writer and, when a path is configured, to a JSON log file.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu      sync.Mutex
	logFile *os.File
	logger  = zerolog.New(io.Discard)
)

// Init routes log output to stdout and, if logPath is set, appends JSON lines
// to that file. Request payloads are only emitted when debug is true.
func Init(logPath string, debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly}}

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	logger = newLogger(zerolog.MultiLevelWriter(writers...), debug)
	return nil
}

// SetOutput replaces every destination with w. The log file, if any, is closed.
func SetOutput(w io.Writer, debug bool) {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	logger = newLogger(w, debug)
}

// Close flushes and closes the log file and discards further output.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	logger = zerolog.New(io.Discard)
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// Logger returns a copy of the current logger for callers that want structured fields.
func Logger() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// LogEvent writes an informational message.
func LogEvent(format string, args ...any) {
	l := Logger()
	l.Info().Msg(fmt.Sprintf(format, args...))
}

// LogWarn writes a warning message.
func LogWarn(format string, args ...any) {
	l := Logger()
	l.Warn().Msg(fmt.Sprintf(format, args...))
}

// LogRequest records a payload crossing the process boundary at debug level.
func LogRequest(direction, host, model, tool string, payload any) {
	l := Logger()
	ev := l.Debug()
	if !ev.Enabled() {
		return
	}
	fields := requestFields(direction, host, model, tool)
	ev.Str("direction", fields.direction).
		Str("host", fields.host).
		Str("model", fields.model)
	if fields.tool != "" {
		ev.Str("tool", fields.tool)
	}
	ev.Str("payload", formatPayload(payload)).Msg("request")
}

func newLogger(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

type requestMeta struct {
	direction string
	host      string
	model     string
	tool      string
}

func requestFields(direction, host, model, tool string) requestMeta {
	meta := requestMeta{
		direction: strings.ToUpper(strings.TrimSpace(direction)),
		host:      strings.TrimSpace(host),
		model:     strings.TrimSpace(model),
		tool:      strings.TrimSpace(tool),
	}
	if meta.host == "" {
		meta.host = "unknown"
	}
	if meta.model == "" {
		meta.model = "unknown"
	}
	return meta
}

func formatPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "null"
	case string:
		if strings.TrimSpace(v) == "" {
			return `""`
		}
		return v
	case []byte:
		if len(v) == 0 {
			return "[]"
		}
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
