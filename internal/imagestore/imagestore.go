// Package imagestore persists uploaded images on disk and hands back the
// reference stored on detection records.
package imagestore

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/errors"
	"github.com/litterscan/litterscan/internal/logger"
)

// Extension is appended to every saved image.
const Extension = ".jpeg"

// Store writes images into one directory.
type Store struct {
	dir       string
	urlPrefix string
	log       logger.Logger
}

// New creates the image directory if needed.
func New(settings *conf.ImageSettings) (*Store, error) {
	if settings.Path == "" {
		return nil, errors.Newf("image directory is not configured").
			Component("imagestore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := os.MkdirAll(settings.Path, 0o755); err != nil {
		return nil, errors.New(err).
			Component("imagestore").
			Category(errors.CategoryFileIO).
			Context("operation", "create_image_dir").
			Build()
	}
	prefix := strings.TrimRight(settings.URLPrefix, "/")
	if prefix == "" {
		prefix = "/images"
	}
	return &Store{
		dir:       settings.Path,
		urlPrefix: prefix,
		log:       logger.Global().Module("imagestore"),
	}, nil
}

// Dir returns the image directory.
func (s *Store) Dir() string { return s.dir }

// FileName maps a detection id onto a safe file name.
func FileName(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := strings.TrimLeft(b.String(), ".")
	if name == "" {
		name = "image"
	}
	return name + Extension
}

// Save writes data for the detection id and returns the image reference.
func (s *Store) Save(id string, data []byte) (string, error) {
	name := FileName(id)
	start := time.Now()

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", s.ioError(err, "create_temp", name, len(data))
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", s.ioError(err, "write", name, len(data))
	}
	if err := tmp.Close(); err != nil {
		return "", s.ioError(err, "close", name, len(data))
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return "", s.ioError(err, "rename", name, len(data))
	}

	s.log.Debug("image saved",
		logger.String("file", name),
		logger.Int("bytes", len(data)),
		logger.Duration("duration", time.Since(start)))
	return path.Join(s.urlPrefix, name), nil
}

// Path resolves a file name inside the image directory. Names that are not
// plain file names, or that do not exist, yield a not-found error.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", s.notFound(name)
	}
	full := filepath.Join(s.dir, name)
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", s.notFound(name)
	}
	return full, nil
}

func (s *Store) notFound(name string) error {
	return errors.Newf("image not found").
		Component("imagestore").
		Category(errors.CategoryNotFound).
		Context("file", name).
		Build()
}

func (s *Store) ioError(err error, op, name string, size int) error {
	return errors.New(err).
		Component("imagestore").
		Category(errors.CategoryImageStore).
		Context("operation", op).
		FileContext(name, int64(size)).
		Build()
}
