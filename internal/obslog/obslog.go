// Package obslog wires log/slog through a tint handler, the structured
// logging the teacher repo never carried but the ambient stack
// requires regardless. Grounded on
// alexshd-lawbench/examples/simple-http/with/with_lawbench.go's
// tint.NewHandler + slog.SetDefault wiring.
package obslog

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// Init installs a tint-formatted handler as slog's default logger,
// writing to stderr at the given level.
func Init(level slog.Level) {
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		}),
	))
}
