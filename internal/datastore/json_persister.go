package datastore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/detection"
	"github.com/litterscan/litterscan/internal/errors"
)

// JSONFilePersister stores the collection as an indented JSON array in one file.
type JSONFilePersister struct {
	path string
}

// NewJSONFilePersister returns a persister writing to path.
func NewJSONFilePersister(path string) *JSONFilePersister {
	return &JSONFilePersister{path: path}
}

// Path returns the file the collection is written to.
func (p *JSONFilePersister) Path() string { return p.path }

// Backend implements Persister.
func (p *JSONFilePersister) Backend() string { return conf.StoreBackendJSON }

// Load reads the collection. A missing file is an empty collection.
func (p *JSONFilePersister) Load(ctx context.Context) ([]detection.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryFileIO).
			Context("path", p.path).
			Context("operation", "load").
			Build()
	}

	var records []detection.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.New(fmt.Errorf("decode %s: %w", p.path, err)).
			Component("datastore").
			Category(errors.CategoryFileParsing).
			FileContext(p.path, int64(len(data))).
			Build()
	}
	return records, nil
}

// Save writes the collection to a temporary file and renames it into place.
func (p *JSONFilePersister) Save(ctx context.Context, records []detection.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []detection.Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode detections: %w", err)
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return p.fileError(err, "mkdir")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return p.fileError(err, "create_temp")
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once the rename succeeded
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return p.fileError(err, "write")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return p.fileError(err, "sync")
	}
	if err := tmp.Close(); err != nil {
		return p.fileError(err, "close")
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		return p.fileError(err, "rename")
	}
	return nil
}

// Close implements Persister.
func (p *JSONFilePersister) Close() error { return nil }

func (p *JSONFilePersister) fileError(err error, operation string) error {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryFileIO).
		Context("path", p.path).
		Context("operation", operation).
		Build()
}
