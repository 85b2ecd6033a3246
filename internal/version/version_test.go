package version

import (
	"runtime/debug"
	"testing"
	"time"
)

func TestOverrideWins(t *testing.T) {
	info := fromBuildInfo(&debug.BuildInfo{Main: debug.Module{Path: "example.com/x", Version: "v0.9.0"}}, "v1.2.3")
	if info.Version != "v1.2.3" || info.Module != "example.com/x" {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestPseudoVersionFromVCS(t *testing.T) {
	ts := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC)
	info := fromBuildInfo(&debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "1234567890abcdef"},
			{Key: "vcs.time", Value: ts.Format(time.RFC3339)},
			{Key: "vcs.modified", Value: "true"},
		},
	}, "")
	if info.Version != "v0.0.0-20250102030405-1234567890ab" {
		t.Fatalf("unexpected version %q", info.Version)
	}
	if !info.Modified || !info.Time.Equal(ts) {
		t.Fatalf("unexpected vcs fields %+v", info)
	}
	if got := info.String(); got != "v0.0.0-20250102030405-1234567890ab" {
		t.Fatalf("pseudo version should not repeat the revision, got %q", got)
	}
}

func TestUnknownBuild(t *testing.T) {
	info := fromBuildInfo(nil, "")
	if info.Module != defaultModule || info.Version != "v0.0.0-unknown" {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestStringAddsRevision(t *testing.T) {
	info := Info{Version: "v1.0.0", Revision: "abcdef0123456789", Modified: true}
	if got := info.String(); got != "v1.0.0 (abcdef012345, modified)" {
		t.Fatalf("unexpected string %q", got)
	}
}
