package logging

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pion/logging"
)

var (
	loggerFactory = logging.NewDefaultLoggerFactory()

	mu      sync.Mutex
	loggers []*logging.DefaultLeveledLogger
)

// NewLogger returns a logger for scope that follows SetLevel.
func NewLogger(scope string) logging.LeveledLogger {
	mu.Lock()
	defer mu.Unlock()

	l := loggerFactory.NewLogger(scope)
	if dl, ok := l.(*logging.DefaultLeveledLogger); ok {
		loggers = append(loggers, dl)
	}
	return l
}

var levels = map[string]logging.LogLevel{
	"disabled": logging.LogLevelDisabled,
	"error":    logging.LogLevelError,
	"warn":     logging.LogLevelWarn,
	"info":     logging.LogLevelInfo,
	"debug":    logging.LogLevelDebug,
	"trace":    logging.LogLevelTrace,
}

// ParseLevel maps a level name such as "debug" to a pion log level.
func ParseLevel(name string) (logging.LogLevel, error) {
	level, ok := levels[strings.ToLower(name)]
	if !ok {
		return logging.LogLevelDisabled, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

// SetLevel changes the level of every logger created so far and the default
// of the ones created later. Later loggers still honor the PION_LOG_*
// environment variables.
func SetLevel(name string) error {
	level, err := ParseLevel(name)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	loggerFactory.DefaultLogLevel = level
	for _, l := range loggers {
		l.SetLevel(level)
	}
	return nil
}
