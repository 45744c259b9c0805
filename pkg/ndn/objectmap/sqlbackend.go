package objectmap

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// mapRow is the gorm model for one Object Map entry in the ModeNormal
// (embedded-SQL) backend, mirroring objectarray's SQLBackend but keyed
// by key instead of position.
type mapRow struct {
	Key   string `gorm:"primaryKey;column:key"`
	Value string `gorm:"column:value"`
}

func (mapRow) TableName() string { return "object_map_items" }

// SQLStorage is the ModeNormal backend: one gorm-backed sqlite file
// per map, suited to large key counts where a single JSON file would
// be unwieldy to patch incrementally.
type SQLStorage struct {
	path string
	db   *gorm.DB
}

// OpenSQLStorage opens (creating if needed) the sqlite file at path.
func OpenSQLStorage(path string) (*SQLStorage, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&mapRow{}); err != nil {
		return nil, err
	}
	return &SQLStorage{path: path, db: db}, nil
}

func (s *SQLStorage) Put(ctx context.Context, key string, value objid.ObjId) error {
	row := mapRow{Key: key, Value: value.String()}
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *SQLStorage) Get(ctx context.Context, key string) (objid.ObjId, bool, error) {
	var row mapRow
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return objid.ObjId{}, false, nil
	}
	if err != nil {
		return objid.ObjId{}, false, err
	}
	id, err := objid.Parse(row.Value)
	if err != nil {
		return objid.ObjId{}, false, err
	}
	return id, true, nil
}

func (s *SQLStorage) Remove(ctx context.Context, key string) (objid.ObjId, bool, error) {
	id, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return id, ok, err
	}
	if err := s.db.WithContext(ctx).Where("key = ?", key).Delete(&mapRow{}).Error; err != nil {
		return objid.ObjId{}, false, err
	}
	return id, true, nil
}

func (s *SQLStorage) IsExist(ctx context.Context, key string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&mapRow{}).Where("key = ?", key).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *SQLStorage) List(ctx context.Context) ([]Item, error) {
	var rows []mapRow
	if err := s.db.WithContext(ctx).Order("key asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]Item, len(rows))
	for i, r := range rows {
		id, err := objid.Parse(r.Value)
		if err != nil {
			return nil, err
		}
		items[i] = Item{Key: r.Key, Value: id}
	}
	return items, nil
}

func (s *SQLStorage) Save(ctx context.Context, items []Item) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&mapRow{}).Error; err != nil {
			return err
		}
		for _, it := range items {
			row := mapRow{Key: it.Key, Value: it.Value.String()}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Clone copies the sqlite file's rows into a fresh sibling file, named
// by a timestamp suffix so repeated clones of the same map don't
// collide.
func (s *SQLStorage) Clone(ctx context.Context) (Storage, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	dupPath := fmt.Sprintf("%s.clone-%d", s.path, time.Now().UnixNano())
	dup, err := OpenSQLStorage(dupPath)
	if err != nil {
		return nil, err
	}
	if err := dup.Save(ctx, items); err != nil {
		return nil, err
	}
	return dup, nil
}

// Close releases the underlying sqlite connection.
func (s *SQLStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
