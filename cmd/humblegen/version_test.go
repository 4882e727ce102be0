package main

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionOf(t *testing.T) {
	withSettings := func(version string, kv ...string) *debug.BuildInfo {
		info := &debug.BuildInfo{Main: debug.Module{Version: version}}
		for i := 0; i+1 < len(kv); i += 2 {
			info.Settings = append(info.Settings, debug.BuildSetting{Key: kv[i], Value: kv[i+1]})
		}
		return info
	}
	tests := []struct {
		name string
		info *debug.BuildInfo
		want string
	}{
		{"no build info", nil, "0.1.0"},
		{"tagged module", withSettings("v0.1.2"), "v0.1.2"},
		{"source build", withSettings("(devel)"), "0.1.0-dev"},
		{"with commit", withSettings("(devel)", "vcs.revision", "3f9c2a1d0e", "vcs.modified", "false"), "0.1.0-dev+3f9c2a1"},
		{"dirty tree", withSettings("", "vcs.revision", "3f9c2a1d0e", "vcs.modified", "true"), "0.1.0-dev+3f9c2a1-dirty"},
		{"short revision", withSettings("(devel)", "vcs.revision", "abc"), "0.1.0-dev"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, versionOf("0.1.0", tt.info))
		})
	}
}
