package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextGetters(t *testing.T) {
	tests := []struct {
		name    string
		ctx     *Context
		version string
		date    string
		commit  string
	}{
		{name: "nil context", ctx: nil, version: UnknownValue, date: UnknownValue, commit: UnknownValue},
		{name: "empty fields", ctx: NewContext("", "", ""), version: UnknownValue, date: UnknownValue, commit: UnknownValue},
		{name: "pre-release version", ctx: NewContext("1.0.0-beta.1", "2024-05-01", "abc123"), version: "1.0.0-beta.1", date: "2024-05-01", commit: "abc123"},
		{name: "build metadata", ctx: NewContext("1.0.0+build.7", "", "abc123"), version: "1.0.0+build.7", date: UnknownValue, commit: "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var info BuildInfo = tt.ctx
			assert.Equal(t, tt.version, info.GetVersion())
			assert.Equal(t, tt.date, info.GetBuildDate())
			assert.Equal(t, tt.commit, info.GetCommit())
		})
	}
}

func TestCurrentDefaults(t *testing.T) {
	c := Current()
	assert.Equal(t, "dev", c.GetVersion())
	assert.Contains(t, c.String(), "dev (commit unknown")
}
