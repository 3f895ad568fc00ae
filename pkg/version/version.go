package version

// Version is the current folio release.
const Version = "0.4.0"

// Commit is set at build time with -ldflags "-X .../version.Commit=...".
var Commit = ""

// BuildVersion returns the version string for display
func BuildVersion() string {
	if Commit != "" {
		return "folio version " + Version + " (" + Commit + ")"
	}
	return "folio version " + Version
}

// APIVersion returns just the version number for API responses
func APIVersion() string {
	return Version
}
