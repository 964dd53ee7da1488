// Package version holds the binwise version string, overridable at build
// time with -ldflags "-X github.com/veldran/binwise/internal/version.Version=...".
package version

var Version = "0.1.0-dev"
