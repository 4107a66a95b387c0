package logging

import (
	"context"
	"fmt"
	"maps"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// Config selects level and output format of the go-logger backend.
type Config struct {
	Level  string
	Format string
}

var levels = map[string]string{
	"trace":   glog.Trace,
	"debug":   glog.Debug,
	"info":    glog.Info,
	"warn":    glog.Warn,
	"warning": glog.Warn,
	"error":   glog.Error,
	"fatal":   glog.Fatal,
}

var formats = map[string]glog.Option{
	"":        glog.WithLoggerTypeConsole(),
	"console": glog.WithLoggerTypeConsole(),
	"json":    glog.WithLoggerTypeJSON(),
	"pretty":  glog.WithLoggerTypePretty(),
}

// GoLogger hands out glog loggers named after console modules.
type GoLogger struct {
	root *glog.BaseLogger
}

func NewGoLogger(cfg Config) (*GoLogger, error) {
	format, ok := formats[strings.ToLower(strings.TrimSpace(cfg.Format))]
	if !ok {
		return nil, fmt.Errorf("logging: unsupported format %q", cfg.Format)
	}
	options := []glog.Option{format}
	if level, ok := levels[strings.ToLower(strings.TrimSpace(cfg.Level))]; ok {
		options = append(options, glog.WithLevel(level))
	}
	return &GoLogger{root: glog.NewLogger(options...)}, nil
}

func (p *GoLogger) GetLogger(name string) Logger {
	if p == nil {
		return NoOp()
	}
	if name = strings.TrimSpace(name); name == "" {
		return wrap(p.root)
	}
	return wrap(p.root.GetLogger(name))
}

func wrap(inner glog.Logger) Logger {
	if inner == nil {
		return NoOp()
	}
	return &glogLogger{inner: inner}
}

type glogLogger struct {
	inner glog.Logger
}

func (l *glogLogger) Trace(msg string, args ...any) { l.inner.Trace(msg, args...) }
func (l *glogLogger) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }
func (l *glogLogger) Info(msg string, args ...any)  { l.inner.Info(msg, args...) }
func (l *glogLogger) Warn(msg string, args ...any)  { l.inner.Warn(msg, args...) }
func (l *glogLogger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }
func (l *glogLogger) Fatal(msg string, args ...any) { l.inner.Fatal(msg, args...) }

// WithFields attaches fields when the backend supports them and is a no-op
// otherwise.
func (l *glogLogger) WithFields(fields map[string]any) Logger {
	with, ok := l.inner.(glog.FieldsLogger)
	if !ok || len(fields) == 0 {
		return l
	}
	return wrap(with.WithFields(maps.Clone(fields)))
}

func (l *glogLogger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}
	return wrap(l.inner.WithContext(ctx))
}
