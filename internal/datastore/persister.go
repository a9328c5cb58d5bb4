package datastore

import (
	"context"
	"fmt"

	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/detection"
	"github.com/litterscan/litterscan/internal/errors"
)

// Persister mirrors the store's ordered record collection to durable storage.
// Save always overwrites the whole collection.
type Persister interface {
	Load(ctx context.Context) ([]detection.Record, error)
	Save(ctx context.Context, records []detection.Record) error
	Backend() string
	Close() error
}

// NewPersister builds the persister selected by the store settings.
func NewPersister(settings *conf.StoreSettings) (Persister, error) {
	switch settings.Backend {
	case conf.StoreBackendJSON, "":
		return NewJSONFilePersister(settings.JSON.Path), nil
	case conf.StoreBackendSQLite:
		return NewSQLitePersister(settings.SQLite.Path)
	case conf.StoreBackendMySQL:
		return NewMySQLPersister(&settings.MySQL)
	default:
		return nil, errors.New(fmt.Errorf("unsupported store backend %q", settings.Backend)).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Context("backend", settings.Backend).
			Build()
	}
}

// nopPersister keeps the store memory-only.
type nopPersister struct{}

func (nopPersister) Load(context.Context) ([]detection.Record, error) { return nil, nil }
func (nopPersister) Save(context.Context, []detection.Record) error   { return nil }
func (nopPersister) Backend() string                                  { return "memory" }
func (nopPersister) Close() error                                     { return nil }
