package logx

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
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
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "debug"
	}
}

var (
	mu       sync.RWMutex
	minLevel           = LevelWarn
	out      io.Writer = io.Discard
	secrets            = make([]string, 0)
)

// SetOutput sets the destination for logs.
func SetOutput(w io.Writer) { mu.Lock(); out = w; mu.Unlock() }

// SetMinLevel sets the minimum level to emit.
func SetMinLevel(l Level) { mu.Lock(); minLevel = l; mu.Unlock() }

// RegisterSecret adds a string to be redacted in outputs. API tokens are
// registered at startup so they never land in a log file.
func RegisterSecret(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	mu.Lock()
	secrets = append(secrets, s)
	mu.Unlock()
}

// RegisterSecrets adds multiple secrets for redaction.
func RegisterSecrets(list []string) {
	for _, s := range list {
		RegisterSecret(s)
	}
}

// Debugf logs a debug message.
func Debugf(format string, args ...any) { emit(LevelDebug, fmt.Sprintf(format, args...), nil) }

// Infof logs an info message.
func Infof(format string, args ...any) { emit(LevelInfo, fmt.Sprintf(format, args...), nil) }

// Warnf logs a warning message.
func Warnf(format string, args ...any) { emit(LevelWarn, fmt.Sprintf(format, args...), nil) }

// Errorf logs an error message.
func Errorf(format string, args ...any) { emit(LevelError, fmt.Sprintf(format, args...), nil) }

// WithFields logs a message with structured fields at the given level.
func WithFields(lvl Level, msg string, fields map[string]any) { emit(lvl, msg, fields) }

type entry struct {
	TS     string         `json:"ts"`
	Level  string         `json:"level"`
	Msg    string         `json:"msg"`
	Fields map[string]any `json:"fields,omitempty"`
}

func emit(lvl Level, msg string, fields map[string]any) {
	mu.RLock()
	ml := minLevel
	w := out
	mu.RUnlock()
	if lvl < ml {
		return
	}
	msg = redact(msg)
	for k, val := range fields {
		if s, ok := val.(string); ok {
			fields[k] = redact(s)
		}
	}
	e := entry{
		TS:     time.Now().Format(time.RFC3339Nano),
		Level:  lvl.String(),
		Msg:    msg,
		Fields: fields,
	}
	b, err := json.Marshal(e)
	if err != nil {
		_, _ = io.WriteString(w, msg+"\n")
		return
	}
	b = append(b, '\n')
	_, _ = w.Write(b)
}

func redact(s string) string {
	mu.RLock()
	defer mu.RUnlock()
	for _, sec := range secrets {
		if sec == "" {
			continue
		}
		s = strings.ReplaceAll(s, sec, "[REDACTED]")
	}
	return s
}
