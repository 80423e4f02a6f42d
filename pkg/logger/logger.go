// Package logger holds the process-wide zerolog logger. Commands attach a
// derived logger to their context; library code logs through Ctx so those
// fields follow every call.
package logger

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/LeeDigitalWorks/clusterbucket/pkg/env"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ctxKey struct{}

var global zerolog.Logger

func init() {
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return filepath.Base(file) + ":" + strconv.Itoa(line)
	}

	var base zerolog.Logger
	if env.IsLocal() {
		base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		base = zerolog.New(os.Stderr)
	}

	global = base.With().
		Timestamp().
		Str("hostname", hostname()).
		Str("env", string(env.Current())).
		Caller().
		Logger().
		Level(levelFromEnv())

	log.Logger = global
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

// levelFromEnv reads LOG_LEVEL. Unset or invalid values mean info.
func levelFromEnv() zerolog.Level {
	raw := os.Getenv("LOG_LEVEL")
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(raw)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// Ctx returns the logger attached to ctx, or the global logger.
func Ctx(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
			return l
		}
	}
	return &global
}

// WithLogger attaches l to ctx.
func WithLogger(ctx context.Context, l *zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// WithCommand attaches a child of the current logger that records the
// command being run.
func WithCommand(ctx context.Context, command string) context.Context {
	l := Ctx(ctx).With().Str("command", command).Logger()
	return WithLogger(ctx, &l)
}

// SetLevel updates the global log level. Loggers already derived keep theirs.
func SetLevel(level zerolog.Level) {
	global = global.Level(level)
	log.Logger = global
}

func Error() *zerolog.Event {
	return global.Error()
}

func Warn() *zerolog.Event {
	return global.Warn()
}

func Info() *zerolog.Event {
	return global.Info()
}

func Debug() *zerolog.Event {
	return global.Debug()
}
