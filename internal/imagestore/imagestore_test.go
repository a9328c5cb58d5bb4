package imagestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/errors"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"det_20240501_101500", "det_20240501_101500.jpeg"},
		{"../../etc/passwd", "_.._etc_passwd.jpeg"},
		{"robot 7/cam#1", "robot_7_cam_1.jpeg"},
		{"...", "image.jpeg"},
		{"", "image.jpeg"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.id))
		})
	}
}

func TestSaveAndResolve(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	s, err := New(&conf.ImageSettings{Path: dir, URLPrefix: "/images/"})
	require.NoError(t, err)

	ref, err := s.Save("det_1", []byte("jpeg bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/images/det_1.jpeg", ref)

	full, err := s.Path("det_1.jpeg")
	require.NoError(t, err)
	data, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	_, err = s.Save("det_1", []byte("replaced"))
	require.NoError(t, err)
	data, err = os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(data))
}

func TestPathRejectsUnknownAndTraversal(t *testing.T) {
	s, err := New(&conf.ImageSettings{Path: t.TempDir()})
	require.NoError(t, err)

	for _, name := range []string{"missing.jpeg", "../secret", "a/b.jpeg", ".hidden", ""} {
		_, err := s.Path(name)
		assert.True(t, errors.IsNotFound(err), name)
	}
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New(&conf.ImageSettings{})
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}
