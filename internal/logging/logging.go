// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging provides the structured logger shared by the pipeline
// stages, the HTTP server and the CLI.
package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a sugared zap logger. Values under credential-like keys are
// replaced with [REDACTED]; session identifiers are logged as a short digest.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

// New builds a logger for the log_mode setting: "prod" emits JSON at info
// level, "nop" discards everything, anything else is the colored
// development console at debug level. Output goes to stderr so CLI stdout
// stays clean for outlines.
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "nop", "off":
		return NewNop(), nil
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	zl, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return &Logger{SugaredLogger: zl.Sugar()}, nil
}

// NewNop returns a logger that discards all output.
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// FromZap wraps an existing zap logger, e.g. one built on an observer core.
func FromZap(zl *zap.Logger) *Logger {
	return &Logger{SugaredLogger: zl.Sugar()}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...any) {
	l.SugaredLogger.Debugw(msg, scrub(keysAndValues)...)
}

func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.SugaredLogger.Infow(msg, scrub(keysAndValues)...)
}

func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.SugaredLogger.Warnw(msg, scrub(keysAndValues)...)
}

func (l *Logger) Error(msg string, keysAndValues ...any) {
	l.SugaredLogger.Errorw(msg, scrub(keysAndValues)...)
}

func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(scrub(keysAndValues)...)}
}

// WarnWriter adapts l for components that report progress to an io.Writer.
// Every non-blank written line becomes one warn entry; a leading
// "warning:" prefix is dropped.
func (l *Logger) WarnWriter() io.Writer {
	return warnWriter{l}
}

type warnWriter struct{ log *Logger }

func (w warnWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(string(p), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "warning:"))
		if line != "" {
			w.log.Warn(line)
		}
	}
	return len(p), nil
}

// secretKeys are substrings of field names whose values are never logged.
var secretKeys = []string{"token", "authorization", "password", "secret", "api_key", "apikey"}

// scrub rewrites the values of sensitive keys. A trailing key with no value
// is passed through for zap to report.
func scrub(kv []any) []any {
	if len(kv) == 0 {
		return kv
	}
	out := make([]any, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		key = strings.ToLower(key)
		switch {
		case containsAny(key, secretKeys):
			out[i+1] = "[REDACTED]"
		case strings.Contains(key, "session_id"):
			out[i+1] = digest(out[i+1])
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// digest returns "hash:" plus the first 12 hex digits of the value's SHA-256,
// so entries for one session stay correlatable.
func digest(v any) string {
	s := fmt.Sprint(v)
	if v == nil || s == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}
