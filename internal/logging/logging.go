package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	once   sync.Once
	logger *log.Logger
)

// Logger returns the process logger, created on first use.
func Logger() *log.Logger {
	once.Do(func() {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "compositor",
		})
		logger.SetLevel(log.InfoLevel)
	})
	return logger
}

// SetLevel parses level ("debug", "info", "warn", "error") and applies it.
// Unknown levels fall back to info.
func SetLevel(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	Logger().SetLevel(lvl)
}

// SetOutput redirects log output, mostly for tests.
func SetOutput(w io.Writer) {
	Logger().SetOutput(w)
}

func Debug(msg string, keyvals ...interface{}) {
	Logger().Helper()
	Logger().Debug(msg, keyvals...)
}

func Info(msg string, keyvals ...interface{}) {
	Logger().Helper()
	Logger().Info(msg, keyvals...)
}

func Warn(msg string, keyvals ...interface{}) {
	Logger().Helper()
	Logger().Warn(msg, keyvals...)
}

func Error(msg string, keyvals ...interface{}) {
	Logger().Helper()
	Logger().Error(msg, keyvals...)
}

func Fatal(msg string, keyvals ...interface{}) {
	Logger().Helper()
	Logger().Fatal(msg, keyvals...)
}
