//go:build !release

package assert

import "fmt"

// That panics when cond is false. Compiled out under the release tag, so it
// guards internal invariants only, never caller input.
func That(cond bool, format string, args ...any) { //nolint:goprintffuncname // it's ok
	if !cond {
		panic("invariant violated: " + fmt.Sprintf(format, args...))
	}
}
