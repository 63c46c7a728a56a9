// Package logging builds the *log.Logger that cmd/enrich creates and
// passes along explicitly; there is no package-level singleton. The
// internal pipeline packages take no logger. Grounded on sdk/client.go's
// NewBotClient(..., logger *log.Logger) shape and
// cmd/pokerforbots/shared/logging.go's debug/non-debug level switch,
// rebased onto charmbracelet/log since that is the logger the teacher's
// importable SDK surface actually threads through constructors.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

// New builds a logger writing to stderr, at debug level when debug is
// true and info level otherwise.
func New(debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
}

// NewStructured builds a JSON-formatted logger, for environments that
// collect logs rather than render them to a terminal.
func NewStructured(debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Formatter:       log.JSONFormatter,
	})
}
