package datastore

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/detection"
	"github.com/litterscan/litterscan/internal/errors"
	"github.com/litterscan/litterscan/internal/logger"
)

const (
	insertBatchSize = 50
	mysqlTimeout    = "10s"
)

// detectionRow is one record of the mirrored collection. Position (1-based)
// keeps the insertion order; the full record is kept as a JSON payload and the other
// columns exist for ad-hoc querying.
type detectionRow struct {
	Position     int    `gorm:"primaryKey;autoIncrement:false"`
	DetectionID  string `gorm:"column:detection_id;size:64;index"`
	Timestamp    string `gorm:"size:40;index"`
	LocationName string `gorm:"size:255"`
	ItemCount    int
	DeviceID     string `gorm:"size:128"`
	Payload      string `gorm:"type:text;not null"`
}

// TableName implements gorm's tabler interface.
func (detectionRow) TableName() string { return "detection_records" }

// GormPersister mirrors the collection into a sqlite or mysql table.
type GormPersister struct {
	db      *gorm.DB
	backend string
}

// NewSQLitePersister opens (creating if needed) the sqlite database at path.
func NewSQLitePersister(path string) (*GormPersister, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.New(err).
				Component("datastore").
				Category(errors.CategoryFileIO).
				Context("path", path).
				Build()
		}
	}
	return openGorm(sqlite.Open(path), conf.StoreBackendSQLite)
}

// NewMySQLPersister connects to the configured mysql database.
func NewMySQLPersister(settings *conf.MySQLSettings) (*GormPersister, error) {
	cfg := mysql.Config{
		User:   settings.Username,
		Passwd: settings.Password,
		Net:    "tcp",
		Addr:   net.JoinHostPort(settings.Host, settings.Port),
		DBName: settings.Database,
		Params: map[string]string{
			"charset":   "utf8mb4",
			"parseTime": "True",
			"loc":       "Local",
			"timeout":   mysqlTimeout,
		},
	}
	return openGorm(gormmysql.Open(cfg.FormatDSN()), conf.StoreBackendMySQL)
}

func openGorm(dialector gorm.Dialector, backend string) (*GormPersister, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(GetLogger().Module("gorm"), gormlogger.Warn),
	})
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open %s database: %w", backend, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("backend", backend).
			Build()
	}
	if err := db.AutoMigrate(&detectionRow{}); err != nil {
		return nil, errors.New(fmt.Errorf("failed to migrate %s schema: %w", backend, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("backend", backend).
			Build()
	}
	GetLogger().Debug("database opened", logger.String("backend", backend))
	return &GormPersister{db: db, backend: backend}, nil
}

// Backend implements Persister.
func (p *GormPersister) Backend() string { return p.backend }

// Load reads the rows in position order and decodes their payloads.
func (p *GormPersister) Load(ctx context.Context) ([]detection.Record, error) {
	var rows []detectionRow
	if err := p.db.WithContext(ctx).Order("position asc").Find(&rows).Error; err != nil {
		return nil, p.dbError(err, "load")
	}

	records := make([]detection.Record, 0, len(rows))
	for i := range rows {
		var rec detection.Record
		if err := json.Unmarshal([]byte(rows[i].Payload), &rec); err != nil {
			return nil, errors.New(fmt.Errorf("decode row %d: %w", rows[i].Position, err)).
				Component("datastore").
				Category(errors.CategoryFileParsing).
				Context("backend", p.backend).
				Build()
		}
		records = append(records, rec)
	}
	return records, nil
}

// Save replaces the table contents with records in one transaction.
func (p *GormPersister) Save(ctx context.Context, records []detection.Record) error {
	rows := make([]detectionRow, 0, len(records))
	for i := range records {
		payload, err := json.Marshal(&records[i])
		if err != nil {
			return fmt.Errorf("encode detection %s: %w", records[i].ID, err)
		}
		rows = append(rows, detectionRow{
			Position:     i + 1,
			DetectionID:  records[i].ID,
			Timestamp:    records[i].Timestamp,
			LocationName: records[i].Location(),
			ItemCount:    records[i].ItemCount(),
			DeviceID:     records[i].DeviceID,
			Payload:      string(payload),
		})
	}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&detectionRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, insertBatchSize).Error
	})
	if err != nil {
		return p.dbError(err, "save")
	}
	return nil
}

// Close closes the underlying connection pool.
func (p *GormPersister) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return p.dbError(err, "close")
	}
	return sqlDB.Close()
}

func (p *GormPersister) dbError(err error, operation string) error {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("backend", p.backend).
		Context("operation", operation).
		Build()
}
