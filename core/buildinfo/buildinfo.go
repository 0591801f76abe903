package buildinfo

// Set with -ldflags, for example:
//
//	-X 'github.com/m3rciful/marketbot/core/buildinfo.Version=v0.3.0'
//	-X 'github.com/m3rciful/marketbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/marketbot/core/buildinfo.Date=2026-10-18T12:00:00Z'
var (
	// Version reports the release tag of the binary.
	Version = "dev"
	// Commit reports the source commit the binary was built from.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)

// String renders version information for the CLI.
func String() string {
	s := Version + " (" + Commit
	if Date != "" {
		s += ", " + Date
	}
	return s + ")"
}
