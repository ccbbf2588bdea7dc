// Package version carries build metadata injected at link time.
package version

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns a human-readable version string.
func String() string {
	return fmt.Sprintf("%s (%s, %s)", Version, Commit, Date)
}

// UserAgent returns the User-Agent header value sent with every API request.
func UserAgent() string {
	return fmt.Sprintf("scout-apm-mcp/%s", Version)
}
