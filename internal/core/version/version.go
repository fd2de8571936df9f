// Package version reports the build of the running binary
package version

import "runtime/debug"

// set with -ldflags "-X cardanoidx/internal/core/version.version=v0.1.0 -X ...commit=abcd -X ...date=2026-01-02"
var (
	version = "dev"
	commit  = ""
	date    = ""
)

// BuildInfo is what /version reports
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info describes service; commit and date fall back to the toolchain's vcs stamp
// and then to none and unknown
func Info(service string) BuildInfo {
	bi := BuildInfo{Service: service, Version: version, Commit: commit, Date: date}
	if bi.Service == "" {
		bi.Service = "cardanoidx"
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && bi.Commit == "":
				bi.Commit = s.Value
			case s.Key == "vcs.time" && bi.Date == "":
				bi.Date = s.Value
			}
		}
	}
	if bi.Commit == "" {
		bi.Commit = "none"
	}
	if bi.Date == "" {
		bi.Date = "unknown"
	}
	return bi
}
