// Package build holds version information injected at link time.
// It has no dependencies on other internal packages.
package build

import "fmt"

var (
	// Set via ldflags during release builds.
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String renders the one-line version banner.
func String() string {
	return fmt.Sprintf("changeset %s (commit %s, built %s)", Version, Commit, BuildDate)
}
