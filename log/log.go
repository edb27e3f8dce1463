// Package log holds the process-wide logger.
package log

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.Mutex
	logger *zap.Logger
)

// Logger returns the process logger, building a production zap logger
// on first use.
func Logger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()

	if logger == nil {
		l, err := zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}
		logger = l
	}
	return logger
}

// SetLogger replaces the process logger. Useful in tests to capture or
// silence output.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}
