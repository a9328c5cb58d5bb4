// Package buildinfo holds build-time metadata injected through ldflags.
package buildinfo

import (
	"fmt"
	"runtime"
)

// UnknownValue is reported for metadata that was not set at build time.
const UnknownValue = "unknown"

// Set with -ldflags "-X github.com/litterscan/litterscan/internal/buildinfo.version=..."
var (
	version   = "dev"
	buildDate = ""
	commit    = ""
)

// BuildInfo provides access to build-time metadata.
type BuildInfo interface {
	GetVersion() string
	GetBuildDate() string
	GetCommit() string
}

// Context contains build-time metadata that is not user-configurable.
type Context struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	Commit    string `json:"commit"`
}

// NewContext returns a Context with the given values.
func NewContext(version, buildDate, commit string) *Context {
	return &Context{Version: version, BuildDate: buildDate, Commit: commit}
}

// Current returns the metadata linked into this binary.
func Current() *Context {
	return NewContext(version, buildDate, commit)
}

func orUnknown(c *Context, field func(*Context) string) string {
	if c == nil {
		return UnknownValue
	}
	if v := field(c); v != "" {
		return v
	}
	return UnknownValue
}

// GetVersion implements BuildInfo.
func (c *Context) GetVersion() string {
	return orUnknown(c, func(c *Context) string { return c.Version })
}

// GetBuildDate implements BuildInfo.
func (c *Context) GetBuildDate() string {
	return orUnknown(c, func(c *Context) string { return c.BuildDate })
}

// GetCommit implements BuildInfo.
func (c *Context) GetCommit() string {
	return orUnknown(c, func(c *Context) string { return c.Commit })
}

// String renders a one-line summary for the version command.
func (c *Context) String() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s/%s, %s)",
		c.GetVersion(), c.GetCommit(), c.GetBuildDate(), runtime.GOOS, runtime.GOARCH, runtime.Version())
}
