package contracts

import (
	"runtime"
	"strings"
	"testing"
)

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
	if info.DataFormat != DataFormatVersion {
		t.Errorf("DataFormat = %q, want %q", info.DataFormat, DataFormatVersion)
	}
}

func TestGetFullVersionString(t *testing.T) {
	s := GetFullVersionString()
	for _, want := range []string{Version, "commit: " + GitCommit, runtime.GOOS + "/" + runtime.GOARCH} {
		if !strings.Contains(s, want) {
			t.Errorf("GetFullVersionString() = %q, missing %q", s, want)
		}
	}
}
