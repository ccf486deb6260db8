package version

// Version and Build identify a deployed persistsvc instance. Build is
// overridden at link time by the release scripts.
var (
	Version = "0.2.0"
	Build   = "dev"
)
