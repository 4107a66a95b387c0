package logging

import (
	"context"
	"maps"
)

// Logger is the leveled logging contract used across the console and CLI.
// It matches the method set of github.com/goliatone/go-logger.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// FieldsLogger is implemented by loggers that can carry structured fields.
type FieldsLogger interface {
	WithFields(fields map[string]any) Logger
}

// Provider hands out named loggers.
type Provider interface {
	GetLogger(name string) Logger
}

const (
	rootModule    = "blog"
	clientModule  = "blog.client"
	sessionModule = "blog.session"
	webModule     = "blog.web"
	cliModule     = "blog.cli"
)

// ModuleLogger returns a logger scoped to module, falling back to NoOp when
// provider is nil.
func ModuleLogger(provider Provider, module string) Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}
	return WithFields(logger, map[string]any{"module": module})
}

func ClientLogger(provider Provider) Logger  { return ModuleLogger(provider, clientModule) }
func SessionLogger(provider Provider) Logger { return ModuleLogger(provider, sessionModule) }
func WebLogger(provider Provider) Logger     { return ModuleLogger(provider, webModule) }
func CLILogger(provider Provider) Logger     { return ModuleLogger(provider, cliModule) }

// WithFields attaches fields when the logger supports it and returns the
// logger unchanged otherwise.
func WithFields(logger Logger, fields map[string]any) Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	if fl, ok := logger.(FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		maps.Copy(copied, fields)
		return fl.WithFields(copied)
	}
	return logger
}

// NoOp drops every entry.
func NoOp() Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) Logger { return n }

func (n noopLogger) WithContext(context.Context) Logger { return n }
