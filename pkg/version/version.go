// pkg/version/version.go
// Package version provides version metadata for the application.
package version

import (
	"fmt"
	"runtime"
	"time"

	"github.com/Masterminds/semver/v3"
)

// These variables are typically injected at build time using -ldflags
var (
	// Version holds the current version of uaparser.
	Version = "dev"
	// Commit holds the current version commit of uaparser.
	Commit = "none"
	// BuildDate holds the build date of uaparser.
	BuildDate = "unknown"
	// StartDate holds the process start time.
	StartDate = time.Now()
)

// Struct returns version information in a structured format.
type Struct struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
}

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("uaparser %s (commit: %s, date: %s)", Version, Commit, BuildDate)
}

// Get returns version information as a Struct.
func Get() Struct {
	return Struct{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}

// Uptime reports how long the process has been running.
func Uptime() time.Duration {
	return time.Since(StartDate)
}

// Semver parses Version. Development builds return nil.
func Semver() *semver.Version {
	v, err := semver.NewVersion(Version)
	if err != nil {
		return nil
	}
	return v
}
