// Package version holds the version of the keyfinder tool.
package version

import "fmt"

const (
	// Major will be incremented on big releases.
	Major = 0
	// Minor will be incremented on small releases.
	Minor = 1
	// Patch should be incremented on every released change.
	Patch = 0
)

// String returns the version as "major.minor.patch".
func String() string {
	return fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
}
