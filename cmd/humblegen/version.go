package main

import (
	_ "embed"
	"runtime/debug"
	"strings"
)

//go:embed VERSION
var releaseFile string

// Version reports the humblegen release. A binary built from a tagged module
// reports the tag; a source build reports the VERSION file plus a "-dev"
// suffix and, when the build recorded one, the short commit ("+3f9c2a1") and
// a "-dirty" marker for uncommitted changes.
func Version() string {
	info, _ := debug.ReadBuildInfo()
	return versionOf(strings.TrimSpace(releaseFile), info)
}

func versionOf(release string, info *debug.BuildInfo) string {
	if info == nil {
		return release
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	var commit string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			commit = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	v := release + "-dev"
	if len(commit) >= 7 {
		v += "+" + commit[:7]
		if dirty {
			v += "-dirty"
		}
	}
	return v
}
