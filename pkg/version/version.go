// Package version exposes build metadata for the batch-planner.
package version

import "runtime"

// Populated at link time, e.g.
//
//	go build -ldflags "-X github.com/docgen-ai-toolkit/batch-planner/pkg/version.Version=1.2.0"
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
	GoVersion = ""
)

// String returns the bare version number.
func String() string {
	return Version
}

// FullString returns the name-qualified version used in CLI banners.
func FullString() string {
	if Version == "dev" {
		return "batch-planner development version"
	}
	return "batch-planner " + Version
}

// Info returns all build metadata as a map. GoVersion falls back to the
// toolchain that compiled the binary when not set through ldflags.
func Info() map[string]string {
	goVersion := GoVersion
	if goVersion == "" {
		goVersion = runtime.Version()
	}
	return map[string]string{
		"version":   Version,
		"buildDate": BuildDate,
		"gitCommit": GitCommit,
		"goVersion": goVersion,
	}
}
