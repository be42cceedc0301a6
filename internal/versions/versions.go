// Package versions holds build information for hello-app.
package versions

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/mod/semver"
)

// APIVersion is the version reported by the JSON endpoints. It tracks the
// payload contract and only changes when the contract changes.
const APIVersion = "1.0.0"

// Build metadata, set at link time:
//
//	-ldflags "-X github.com/iwishiwala/devops-task/internal/versions.Version=v1.0.3 ..."
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// VersionInfo describes the running binary
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// GetVersionInfo returns the build information of the running binary
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// Canonical returns v as a canonical semantic version without the leading
// "v", or the empty string if v is not a valid semantic version.
func Canonical(v string) string {
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	c := semver.Canonical(v)
	return strings.TrimPrefix(c, "v")
}

// ServiceVersion is the version used to identify the service in telemetry.
// Release builds report their link-time version, development builds fall
// back to APIVersion.
func ServiceVersion() string {
	if c := Canonical(Version); c != "" {
		return c
	}
	return APIVersion
}
