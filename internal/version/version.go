package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release of the generator, set with -ldflags "-X".
	Version = "0.1.0"
	// Commit is the git revision the binary was built from.
	Commit = "none"
	// BuildTime is the UTC time of the build.
	BuildTime = "unknown"
)

// Info is the build metadata of the running generator.
type Info struct {
	// Version is the generator release.
	Version string
	// Commit is the source revision.
	Commit string
	// BuildTime is the build timestamp.
	BuildTime string
	// GoVersion is the toolchain that produced the binary.
	GoVersion string
	// Platform is GOOS/GOARCH.
	Platform string
}

// Current collects the metadata of this binary.
func Current() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String renders the metadata on one line.
func (i Info) String() string {
	return fmt.Sprintf("manifestgen %s (commit %s, built %s, %s %s)",
		i.Version, i.Commit, i.BuildTime, i.GoVersion, i.Platform)
}

// KV returns the metadata as logger key-value pairs.
func (i Info) KV() []any {
	return []any{
		"version", i.Version,
		"commit", i.Commit,
		"built", i.BuildTime,
	}
}

// Short returns the release alone.
func Short() string {
	return Version
}

// Full returns the one-line metadata of this binary.
func Full() string {
	return Current().String()
}
