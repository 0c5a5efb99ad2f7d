// Package slog provides logging decorators for metsalto interfaces.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/beevik/etree"
	"github.com/tbruckner/metsalto"
)

// Ensure LoggingLoader implements metsalto.Loader.
var _ metsalto.Loader = (*LoggingLoader)(nil)

// LoggingLoader wraps a Loader with debug logging of every XML load.
type LoggingLoader struct {
	next   metsalto.Loader
	logger *slog.Logger
}

// NewLoggingLoader creates a new LoggingLoader.
func NewLoggingLoader(next metsalto.Loader, logger *slog.Logger) *LoggingLoader {
	return &LoggingLoader{next: next, logger: logger}
}

// Load delegates to the wrapped loader and logs the operation.
func (l *LoggingLoader) Load(ctx context.Context, source string) (doc *etree.Document, err error) {
	defer func(begin time.Time) {
		l.logger.Debug("xml load",
			"source", source,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return l.next.Load(ctx, source)
}
