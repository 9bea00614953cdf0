package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
)

const (
	// rotate after 50 MB, keep the last 5 rolls
	rotationThresholdKB = 50 * 1000
	rotationMaxRolls    = 5

	writeQueueSize = 64
)

type logEntry struct {
	log   []byte
	level Level
}

type leveledWriter struct {
	io.WriteCloser
	level Level
}

// Backend fans log entries out to a set of writers, each with its own
// minimum level. Entries are queued and written by a single goroutine, so
// lines produced by concurrent subsystems are never interleaved.
type Backend struct {
	isRunning uint32
	writers   []leveledWriter
	entries   chan logEntry
	done      sync.WaitGroup
}

// NewBackend creates a new logger backend. Writers must be attached before
// Run is called.
func NewBackend() *Backend {
	return &Backend{entries: make(chan logEntry, writeQueueSize)}
}

// AddLogWriter attaches w to the backend. Only entries at or above level
// are written to it.
func (b *Backend) AddLogWriter(w io.WriteCloser, level Level) error {
	if b.IsRunning() {
		return errors.New("the logger is already running")
	}
	b.writers = append(b.writers, leveledWriter{WriteCloser: w, level: level})
	return nil
}

// AddLogFile attaches a rotating log file to the backend, creating its
// directory if needed.
func (b *Backend) AddLogFile(logFile string, level Level) error {
	logDir, _ := filepath.Split(logFile)
	if logDir != "" {
		err := os.MkdirAll(logDir, 0700)
		if err != nil {
			return errors.Wrapf(err, "failed to create log directory %s", logDir)
		}
	}
	r, err := rotator.New(logFile, rotationThresholdKB, false, rotationMaxRolls)
	if err != nil {
		return errors.Wrapf(err, "failed to create file rotator for %s", logFile)
	}
	return b.AddLogWriter(r, level)
}

// Run starts the goroutine that drains queued entries. It may be called
// only once.
func (b *Backend) Run() error {
	if !atomic.CompareAndSwapUint32(&b.isRunning, 0, 1) {
		return errors.New("the logger is already running")
	}
	b.done.Add(1)
	go func() {
		defer b.done.Done()
		defer func() {
			if err := recover(); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Fatal error in logger backend: %+v\n%s\n", err, debug.Stack())
			}
		}()
		for entry := range b.entries {
			for _, writer := range b.writers {
				if entry.level >= writer.level {
					_, _ = writer.Write(entry.log)
				}
			}
		}
	}()
	return nil
}

// IsRunning returns true if Run has been called.
func (b *Backend) IsRunning() bool {
	return atomic.LoadUint32(&b.isRunning) != 0
}

// Close flushes queued entries and closes every writer.
func (b *Backend) Close() {
	close(b.entries)
	b.done.Wait()
	for _, writer := range b.writers {
		_ = writer.Close()
	}
}

// Logger returns a new logger for the given subsystem. The logger starts at
// LevelInfo.
func (b *Backend) Logger(subsystemTag string) *Logger {
	return &Logger{level: uint32(LevelInfo), tag: subsystemTag, backend: b}
}

func (b *Backend) write(level Level, line []byte) {
	if !b.IsRunning() {
		return
	}
	b.entries <- logEntry{log: line, level: level}
}
