package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// BackendLog is the logging backend shared by every subsystem.
var BackendLog = NewBackend()

var (
	subsystemLoggers     = make(map[string]*Logger)
	subsystemLoggersLock sync.Mutex
)

// RegisterSubSystem returns the logger for the given subsystem tag,
// creating it on first use.
func RegisterSubSystem(subsystem string) *Logger {
	subsystemLoggersLock.Lock()
	defer subsystemLoggersLock.Unlock()

	logger, ok := subsystemLoggers[subsystem]
	if !ok {
		logger = BackendLog.Logger(subsystem)
		subsystemLoggers[subsystem] = logger
	}
	return logger
}

type stdoutWriter struct{}

func (stdoutWriter) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdoutWriter) Close() error {
	return nil
}

// InitLog attaches stdout and the given log files to the shared backend and
// starts it. errLogFile receives only warnings and above.
func InitLog(logFile, errLogFile string) {
	err := BackendLog.AddLogWriter(stdoutWriter{}, LevelTrace)
	if err == nil {
		err = BackendLog.AddLogFile(logFile, LevelTrace)
	}
	if err == nil {
		err = BackendLog.AddLogFile(errLogFile, LevelWarn)
	}
	if err == nil {
		err = BackendLog.Run()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %+v\n", err)
		os.Exit(1)
	}
}

// SetLogLevels sets the level of every registered subsystem.
func SetLogLevels(level Level) {
	subsystemLoggersLock.Lock()
	defer subsystemLoggersLock.Unlock()

	for _, logger := range subsystemLoggers {
		logger.SetLevel(level)
	}
}

// SupportedSubsystems returns the sorted tags of every registered subsystem.
func SupportedSubsystems() []string {
	subsystemLoggersLock.Lock()
	defer subsystemLoggersLock.Unlock()

	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsystem := range subsystemLoggers {
		subsystems = append(subsystems, subsystem)
	}
	sort.Strings(subsystems)
	return subsystems
}

// ParseAndSetLogLevels parses a debug level string of the form "level" or
// "SUBSYS=level,SUBSYS2=level" and applies it.
func ParseAndSetLogLevels(debugLevel string) error {
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		level, ok := LevelFromString(debugLevel)
		if !ok {
			return errors.Errorf("the specified debug level [%s] is invalid", debugLevel)
		}
		SetLogLevels(level)
		return nil
	}

	for _, pair := range strings.Split(debugLevel, ",") {
		fields := strings.Split(pair, "=")
		if len(fields) != 2 {
			return errors.Errorf("the specified debug level contains an invalid subsystem/level pair [%s]", pair)
		}
		subsystem, levelString := fields[0], fields[1]

		subsystemLoggersLock.Lock()
		logger, ok := subsystemLoggers[subsystem]
		subsystemLoggersLock.Unlock()
		if !ok {
			return errors.Errorf("the specified subsystem [%s] is invalid -- supported subsystems %s",
				subsystem, strings.Join(SupportedSubsystems(), ", "))
		}
		level, ok := LevelFromString(levelString)
		if !ok {
			return errors.Errorf("the specified debug level [%s] is invalid", levelString)
		}
		logger.SetLevel(level)
	}
	return nil
}
