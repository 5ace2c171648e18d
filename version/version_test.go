package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRevision(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		settings map[string]string
		want     string
	}{
		"no build info": {
			settings: nil,
			want:     "unknown",
		},
		"clean": {
			settings: map[string]string{"vcs.revision": "abc123", "vcs.modified": "false"},
			want:     "abc123",
		},
		"dirty": {
			settings: map[string]string{"vcs.revision": "abc123", "vcs.modified": "true"},
			want:     "abc123-dirty",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, revision(tc.settings))
		})
	}
}

func TestInfo(t *testing.T) {
	t.Parallel()

	info := Info{
		Version:   "v1.2.0",
		Revision:  "abc123",
		GoVersion: "go1.25.0",
		Platform:  "linux/amd64",
	}

	assert.Equal(t, "kreate/v1.2.0 (linux/amd64)", info.UserAgent("kreate"))
	assert.Equal(t, "v1.2.0 (revision abc123, go1.25.0, linux/amd64)", info.String())

	got := Get()
	assert.NotEmpty(t, got.Version)
	assert.Equal(t, runtime.Version(), got.GoVersion)
	assert.True(t, strings.HasPrefix(got.Platform, runtime.GOOS+"/"))
}
