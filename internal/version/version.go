package version

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Full returns the complete version line for --version output.
func Full() string {
	return fmt.Sprintf("echolog %s, commit %s, built at %s", Version, Commit, Date)
}
