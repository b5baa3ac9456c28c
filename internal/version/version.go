// Package version describes the running scout binary.
package version

import (
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Overridden at link time:
//
//	go build -ldflags "-X github.com/standardbeagle/scout/internal/version.Commit=$(git rev-parse HEAD)"
var (
	Version   = "0.1.0"
	Commit    = ""
	BuildDate = ""
)

// Build identifies a binary. Reports carry it so results from different
// builds can be told apart.
type Build struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit,omitempty" yaml:"commit,omitempty"`
	BuiltAt   string `json:"built_at,omitempty" yaml:"built_at,omitempty"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Modified  bool   `json:"modified,omitempty" yaml:"modified,omitempty"`
	ID        string `json:"id" yaml:"id"`
}

var (
	current     Build
	currentOnce sync.Once
)

// Current returns the Build of this binary. Link-time values win over the
// VCS stamps the toolchain embeds.
func Current() Build {
	currentOnce.Do(func() {
		info, _ := debug.ReadBuildInfo()
		current = describe(info)
	})
	return current
}

func describe(info *debug.BuildInfo) Build {
	b := Build{
		Version:   Version,
		Commit:    Commit,
		BuiltAt:   BuildDate,
		GoVersion: runtime.Version(),
	}
	if info != nil {
		b.GoVersion = info.GoVersion
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if b.Commit == "" {
					b.Commit = s.Value
				}
			case "vcs.time":
				if b.BuiltAt == "" {
					b.BuiltAt = s.Value
				}
			case "vcs.modified":
				b.Modified = s.Value == "true"
			}
		}
	}

	d := xxhash.New()
	for _, part := range []string{b.Version, b.Commit, b.BuiltAt, b.GoVersion, strconv.FormatBool(b.Modified)} {
		_, _ = d.WriteString(part)
		_, _ = d.Write([]byte{0})
	}
	b.ID = strconv.FormatUint(d.Sum64(), 16)
	return b
}

// Short renders the version with an abbreviated commit, e.g. "0.1.0 (3f2a9c1)".
func (b Build) Short() string {
	if b.Commit == "" {
		return b.Version
	}
	commit := b.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if b.Modified {
		commit += "-dirty"
	}
	return b.Version + " (" + commit + ")"
}

// String is the full one-line description.
func (b Build) String() string {
	s := "scout " + b.Short() + ", " + b.GoVersion
	if b.BuiltAt != "" {
		s += ", built " + b.BuiltAt
	}
	return s
}
