package userauth

import (
	"github.com/goliatone/go-logger/glog"
)

// Logger is the structured logging contract used across the package.
// It matches the glog surface so any glog logger satisfies it directly.
type Logger = glog.Logger

// LoggerProvider resolves named loggers so collaborators get scoped
// output, e.g. "userauth.accounts" or "userauth.roles".
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// ResolveLogger picks the logger for the given scope. It prefers the
// provider, falls back to the supplied logger, and finally to the
// package default. The returned provider is never nil.
func ResolveLogger(name string, provider LoggerProvider, fallback Logger) (LoggerProvider, Logger) {
	if provider != nil {
		if logger := provider.GetLogger(name); logger != nil {
			return provider, logger
		}
	}

	if fallback != nil {
		return singleLoggerProvider{logger: fallback}, fallback
	}

	logger := defaultLogger()
	return singleLoggerProvider{logger: logger}, logger
}

func defaultLogger() Logger {
	return glog.NewLogger(
		glog.WithName("userauth"),
	)
}

type singleLoggerProvider struct {
	logger Logger
}

func (p singleLoggerProvider) GetLogger(string) Logger {
	return p.logger
}
