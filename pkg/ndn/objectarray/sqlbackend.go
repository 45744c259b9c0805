package objectarray

import (
	"context"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// arrayRow is the gorm model for one ObjectArray element in the
// ModeNormal (embedded-SQL) backend.
type arrayRow struct {
	Idx   int    `gorm:"primaryKey;autoIncrement:false"`
	ObjID string `gorm:"column:obj_id"`
}

func (arrayRow) TableName() string { return "object_array_items" }

// SQLBackend is the ModeNormal backend: one gorm-backed sqlite file
// per array, suited to large item counts where a single JSON file
// would be unwieldy to patch incrementally.
type SQLBackend struct {
	db *gorm.DB
}

// OpenSQLBackend opens (creating if needed) the sqlite file at path.
func OpenSQLBackend(path string) (*SQLBackend, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&arrayRow{}); err != nil {
		return nil, err
	}
	return &SQLBackend{db: db}, nil
}

func (b *SQLBackend) Load(ctx context.Context) ([]objid.ObjId, error) {
	var rows []arrayRow
	if err := b.db.WithContext(ctx).Order("idx asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]objid.ObjId, len(rows))
	for i, r := range rows {
		id, err := objid.Parse(r.ObjID)
		if err != nil {
			return nil, err
		}
		items[i] = id
	}
	return items, nil
}

func (b *SQLBackend) Save(ctx context.Context, items []objid.ObjId) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&arrayRow{}).Error; err != nil {
			return err
		}
		for i, id := range items {
			row := arrayRow{Idx: i, ObjID: id.String()}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Close releases the underlying sqlite connection.
func (b *SQLBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
