package logger

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Logger writes tagged, leveled lines for one subsystem.
type Logger struct {
	level   uint32
	tag     string
	backend *Backend
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32(&l.level))
}

// SetLevel changes the logging level.
func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32(&l.level, uint32(level))
}

// Backend returns the backend this logger writes to.
func (l *Logger) Backend() *Backend {
	return l.backend
}

// Tracef formats and logs a message at LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.logf(LevelTrace, format, args...)
}

// Debugf formats and logs a message at LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logf(LevelDebug, format, args...)
}

// Infof formats and logs a message at LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.logf(LevelInfo, format, args...)
}

// Warnf formats and logs a message at LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logf(LevelWarn, format, args...)
}

// Errorf formats and logs a message at LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logf(LevelError, format, args...)
}

// Criticalf formats and logs a message at LevelCritical.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.logf(LevelCritical, format, args...)
}

func (l *Logger) logf(level Level, format string, args ...interface{}) {
	if level < l.Level() {
		return
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	line := fmt.Sprintf("%s [%s] %s: %s\n", timestamp, level, l.tag, fmt.Sprintf(format, args...))
	l.backend.write(level, []byte(line))
}
