package lunatic

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
	loggerMx   sync.RWMutex
	debugLog   = false
)

// Logger returns the package logger. It is a no-op logger until [SetLogger] or
// [SetDebugLog] is called.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		loggerMx.Lock()
		defer loggerMx.Unlock()
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	loggerMx.RLock()
	defer loggerMx.RUnlock()
	return logger
}

func SetLogger(l *zap.Logger) {
	Logger()
	loggerMx.Lock()
	defer loggerMx.Unlock()
	logger = l
}

// SetDebugLog switches between a development logger and a no-op logger.
func SetDebugLog(v bool) {
	if v {
		l, err := zap.NewDevelopment()
		if err != nil {
			return
		}
		SetLogger(l)
	} else {
		SetLogger(zap.NewNop())
	}
	loggerMx.Lock()
	debugLog = v
	loggerMx.Unlock()
}

func DebugLogEnabled() bool {
	loggerMx.RLock()
	defer loggerMx.RUnlock()
	return debugLog
}

func debugf(format string, args ...any) {
	if DebugLogEnabled() {
		Logger().Sugar().Debugf(format, args...)
	}
}
