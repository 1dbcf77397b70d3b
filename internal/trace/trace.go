// Package trace provides debug-gated logging for the compiler and runtime.
//
// Every call site pays only a branch, plus building its variadic argument
// list, when tracing is disabled; release builds are expected to leave
// Enabled false.
package trace

import (
	"fmt"
	"os"
)

// Enabled turns on Log output. It defaults to false so production callers of
// this module pay nothing for the trace plumbing.
var Enabled = false

// Log writes a trace line to stderr, tagged with component, if Enabled is
// true. format/args follow fmt.Sprintf conventions.
func Log(component, format string, args ...any) {
	if !Enabled {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "[%s] %s\n", component, msg)
}
