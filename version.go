package quickmail

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// Build metadata, set with -ldflags "-X". Unset values are filled from the
// binary's embedded VCS information where possible.
var (
	Version   = "dev"
	GitCommit = ""
	BuildDate = ""
)

// VersionInfo describes the running build.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Dirty     bool   `json:"dirty,omitempty"`
}

// GetVersionInfo returns the build metadata of the running binary.
func GetVersionInfo() *VersionInfo {
	info := &VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
				if len(info.GitCommit) > 12 {
					info.GitCommit = info.GitCommit[:12]
				}
			}
		case "vcs.time":
			if info.BuildDate == "" {
				info.BuildDate = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

// String returns a one line summary.
func (v *VersionInfo) String() string {
	s := "Version: " + v.Version
	if v.GitCommit != "" {
		s += ", Commit: " + v.GitCommit
		if v.Dirty {
			s += "-dirty"
		}
	}
	if v.BuildDate != "" {
		s += ", Built: " + v.BuildDate
	}
	return s + ", Go: " + v.GoVersion + ", Platform: " + v.Platform
}

// UserAgent returns the Server header value for the validation endpoint.
func (v *VersionInfo) UserAgent() string {
	return fmt.Sprintf("quickmail/%s (%s)", v.Version, v.Platform)
}

// PrintVersion writes version information to w.
func PrintVersion(w io.Writer) {
	fmt.Fprintln(w, "Quick Mail")
	fmt.Fprintln(w, GetVersionInfo())
}
