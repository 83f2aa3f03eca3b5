// Package kassert provides the "this should be impossible" contract used
// throughout the kernel packages. Nachos' original C++ ASSERT macro aborts
// the whole simulator the instant an invariant is violated; Go's analogue is
// a panic, since these conditions are never meant to be recovered from by
// calling code.
package kassert

import "fmt"

// Assert panics with msg if cond is false. Use it for invariant violations
// only (double-free, out-of-range index, unexpected syscall) —
// never for recoverable, caller-triggerable failures such as "not found" or
// "disk full", which must be returned as errors instead.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
