package bridge

var (
	Version = "v0.0.0-in-progress"
	Commit  = "unknown"
)

// BuildVersion returns the semantic version populated at build time via
// ldflags. In development it defaults to v0.0.0-in-progress.
func BuildVersion() string {
	return Version
}
