package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/GabrielNunesIT/go-libs/logger"
)

var logLevels = []string{"trace", "debug", "info", "warn", "warning", "error"}

// checkLogLevel rejects level names SetupLogging would silently treat as info.
func checkLogLevel(level string) error {
	name := strings.ToLower(level)
	for _, l := range logLevels {
		if name == l {
			return nil
		}
	}
	return fmt.Errorf("unknown log level %q", level)
}

// SetupLogging creates a console logger on w at the given level and installs
// it as the default logger. Progress and failures of every operation go
// through it; the summary does not.
func SetupLogging(level string, w io.Writer) logger.ILogger {
	log := logger.NewConsoleLogger(w)

	switch strings.ToLower(level) {
	case "trace":
		log.SetLevel(logger.LevelTrace)
	case "debug":
		log.SetLevel(logger.LevelDebug)
	case "warn", "warning":
		log.SetLevel(logger.LevelWarning)
	case "error":
		log.SetLevel(logger.LevelError)
	default:
		log.SetLevel(logger.LevelInfo)
	}

	logger.SetDefaultLogger(log)
	logger.SetCtxFallbackLogger(log)

	return log
}
