//go:build release

package assert

// That is a no-op in release builds.
func That(cond bool, format string, args ...any) { //nolint:goprintffuncname // it's ok
}
