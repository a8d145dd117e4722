package main

import (
	"fmt"

	"github.com/logrusorgru/aurora"
)

// LS_COLORS-driven path colorization would need per-entry type
// information the core's (path, stat) -> () sink contract
// deliberately doesn't carry past the formatted line (§1's scope),
// so aurora is wired here only for the diagnostics cmd/bfs itself
// prints: parse errors, per-path traversal failures, and the
// shutdown-forcing warning, coloring its own log lines rather than
// indexed chain data.
func warnLine(color bool, msg string) string {
	if !color {
		return msg
	}
	return fmt.Sprint(aurora.Yellow(msg))
}

func errorLine(color bool, path string, err error) string {
	line := fmt.Sprintf("bfs: %s: %v", path, err)
	if !color {
		return line
	}
	return fmt.Sprint(aurora.Red(line))
}
