// Package logger holds the process-wide logger shared by the command-line
// tools.
package logger

import (
	"os"

	logger "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// L writes prefixed, timestamped lines to stderr. Library packages stay
// silent; only commands log through it.
var L = &logger.Logger{
	Out:   os.Stderr,
	Level: logger.InfoLevel,
	Formatter: &prefixed.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	},
}

// Configure adjusts the level and color handling from command flags. Quiet
// wins over verbose.
func Configure(verbose, quiet, noColor bool) {
	switch {
	case quiet:
		L.SetLevel(logger.ErrorLevel)
	case verbose:
		L.SetLevel(logger.DebugLevel)
	default:
		L.SetLevel(logger.InfoLevel)
	}
	if noColor {
		L.Formatter = &prefixed.TextFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FullTimestamp:   true,
			ForceFormatting: true,
			DisableColors:   true,
		}
	}
}
