// pkg/version/version_test.go
package version

import (
	"strings"
	"testing"
	"time"
)

func TestInfo_ReturnsFormattedString(t *testing.T) {
	info := Info()

	if !strings.Contains(info, "uaparser") {
		t.Errorf("Expected info to contain 'uaparser', got: %s", info)
	}
	if !strings.Contains(info, Version) {
		t.Errorf("Expected info to contain version '%s'", Version)
	}
	if !strings.Contains(info, Commit) {
		t.Errorf("Expected info to contain commit '%s'", Commit)
	}
}

func TestGet_ReturnsCorrectStruct(t *testing.T) {
	v := Get()

	if v.Version != Version {
		t.Errorf("Expected version %s, got %s", Version, v.Version)
	}
	if v.Commit != Commit {
		t.Errorf("Expected commit %s, got %s", Commit, v.Commit)
	}
	if !strings.HasPrefix(v.GoVersion, "go") && !strings.HasPrefix(v.GoVersion, "devel") {
		t.Errorf("Unexpected go version %q", v.GoVersion)
	}
}

func TestStartDate_IsInitialized(t *testing.T) {
	if time.Since(StartDate) > time.Minute {
		t.Errorf("StartDate is too old: %s", StartDate)
	}
	if Uptime() < 0 {
		t.Errorf("Uptime must not be negative")
	}
}

func TestSemver(t *testing.T) {
	prev := Version
	t.Cleanup(func() { Version = prev })

	Version = "dev"
	if Semver() != nil {
		t.Errorf("dev build must not parse as a version")
	}

	Version = "v1.4.2"
	v := Semver()
	if v == nil || v.String() != "1.4.2" {
		t.Errorf("Expected 1.4.2, got %v", v)
	}
}
