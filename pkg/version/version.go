// Package version exposes build and version information for the
// fuel analysis MCP server.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// BuildVersion is the application version. Overridden at build time via
// -ldflags "-X github.com/NERVsystems/fuelmcp/pkg/version.BuildVersion=...".
var BuildVersion = "0.1.0"

// vcsInfo extracts the revision and commit time from embedded build info.
func vcsInfo() (revision, buildTime string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown", "unknown"
	}
	revision, buildTime = "unknown", "unknown"
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.time":
			buildTime = setting.Value
		}
	}
	return revision, buildTime
}

// String returns a human-readable version line.
func String() string {
	revision, buildTime := vcsInfo()
	return fmt.Sprintf("fuelmcp %s (%s, commit %s, built %s)",
		BuildVersion, runtime.Version(), revision, buildTime)
}

// Info returns version details as a flat map for health and
// registration payloads.
func Info() map[string]string {
	revision, buildTime := vcsInfo()
	return map[string]string{
		"version":    BuildVersion,
		"go_version": runtime.Version(),
		"commit":     revision,
		"build_date": buildTime,
	}
}
