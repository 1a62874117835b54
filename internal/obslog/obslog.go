// Package obslog is the process-wide logging handle for stpimage.
//
// Grounded on itohio-EasyRobot's pkg/logger/logger.go: a single
// console-formatted zerolog.Logger, not an ambient singleton read from
// hot inner loops (gridder workers, labelling passes) — only at call
// boundaries such as FFT wisdom fallback, sigma-clip iterations, and the
// orchestrator's small-kernel FFT warning.
package obslog

import (
	"os"

	"github.com/rs/zerolog"
)

// Log is the package-wide logger. Callers may reassign it (e.g. to
// redirect to a file, or to raise the level) before invoking the core
// packages; nothing in stpimage mutates it concurrently with logging.
var Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

// SetLevel adjusts the minimum level Log emits.
func SetLevel(level zerolog.Level) {
	Log = Log.Level(level)
}
