// Package constant defines immutable application-level identifiers and build metadata.
package constant

const (
	// Vidora is the canonical application identifier used for filesystem paths, env prefixes and CLI branding.
	Vidora = "vidora"

	// Version is the current application semantic version string.
	Version = "0.4.0"

	// UserAgent is sent with every request made to the sync backend.
	UserAgent = Vidora + "/" + Version
)

// Build metadata, overridden with -ldflags at release time.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)

// runtime.GOOS values that get special handling when spawning players and openers.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
	Android = "android"
)
