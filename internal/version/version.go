// Package version reports the build identity of the uqlabs binary.
package version

import (
	"runtime/debug"
	"strings"
	"time"
)

const defaultModule = "pkt.systems/uqlabs"

// buildVersion is set via -ldflags "-X pkt.systems/uqlabs/internal/version.buildVersion=...".
var buildVersion = ""

// Info is the build identity read from the binary.
type Info struct {
	Module   string
	Version  string
	Revision string
	Time     time.Time
	Modified bool
}

// Read collects the build identity. Missing pieces stay zero.
func Read() Info {
	info, _ := debug.ReadBuildInfo()
	return fromBuildInfo(info, buildVersion)
}

// Current returns the best available version string.
func Current() string {
	return Read().Version
}

// Module returns the main module path.
func Module() string {
	return Read().Module
}

// String renders the version with the short revision when known.
func (i Info) String() string {
	out := i.Version
	if rev := shortRevision(i.Revision); rev != "" && !strings.Contains(out, rev) {
		out += " (" + rev
		if i.Modified {
			out += ", modified"
		}
		out += ")"
	}
	return out
}

func fromBuildInfo(info *debug.BuildInfo, override string) Info {
	out := Info{Module: defaultModule}
	if info != nil {
		if path := strings.TrimSpace(info.Main.Path); path != "" {
			out.Module = path
		}
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				out.Revision = setting.Value
			case "vcs.time":
				if parsed, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					out.Time = parsed.UTC()
				}
			case "vcs.modified":
				out.Modified = setting.Value == "true"
			}
		}
	}
	switch {
	case strings.TrimSpace(override) != "":
		out.Version = strings.TrimSpace(override)
	case info != nil && info.Main.Version != "" && info.Main.Version != "(devel)":
		out.Version = info.Main.Version
	case out.Revision != "" && !out.Time.IsZero():
		out.Version = "v0.0.0-" + out.Time.Format("20060102150405") + "-" + shortRevision(out.Revision)
	default:
		out.Version = "v0.0.0-unknown"
	}
	out.Version = strings.TrimSuffix(out.Version, "+dirty")
	return out
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
