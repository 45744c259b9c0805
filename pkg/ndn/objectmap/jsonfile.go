package objectmap

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// JSONFileStorage is the ModeSimple backend: the whole item set lives
// in one small JSON file, written atomically via tmp-then-rename.
type JSONFileStorage struct {
	Path string
}

func NewJSONFileStorage(path string) *JSONFileStorage {
	return &JSONFileStorage{Path: path}
}

type jsonFileRow struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (s *JSONFileStorage) load() (map[string]objid.ObjId, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]objid.ObjId{}, nil
		}
		return nil, err
	}
	var rows []jsonFileRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	m := make(map[string]objid.ObjId, len(rows))
	for _, r := range rows {
		id, err := objid.Parse(r.Value)
		if err != nil {
			return nil, err
		}
		m[r.Key] = id
	}
	return m, nil
}

func (s *JSONFileStorage) save(m map[string]objid.ObjId) error {
	rows := make([]jsonFileRow, 0, len(m))
	for k, v := range m {
		rows = append(rows, jsonFileRow{Key: k, Value: v.String()})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	raw, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (s *JSONFileStorage) Put(ctx context.Context, key string, value objid.ObjId) error {
	m, err := s.load()
	if err != nil {
		return err
	}
	m[key] = value
	return s.save(m)
}

func (s *JSONFileStorage) Get(ctx context.Context, key string) (objid.ObjId, bool, error) {
	m, err := s.load()
	if err != nil {
		return objid.ObjId{}, false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

func (s *JSONFileStorage) Remove(ctx context.Context, key string) (objid.ObjId, bool, error) {
	m, err := s.load()
	if err != nil {
		return objid.ObjId{}, false, err
	}
	v, ok := m[key]
	if !ok {
		return objid.ObjId{}, false, nil
	}
	delete(m, key)
	return v, true, s.save(m)
}

func (s *JSONFileStorage) IsExist(ctx context.Context, key string) (bool, error) {
	m, err := s.load()
	if err != nil {
		return false, err
	}
	_, ok := m[key]
	return ok, nil
}

func (s *JSONFileStorage) List(ctx context.Context) ([]Item, error) {
	m, err := s.load()
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(m))
	for k, v := range m {
		items = append(items, Item{Key: k, Value: v})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items, nil
}

func (s *JSONFileStorage) Save(ctx context.Context, items []Item) error {
	m := make(map[string]objid.ObjId, len(items))
	for _, it := range items {
		m[it.Key] = it.Value
	}
	return s.save(m)
}

func (s *JSONFileStorage) Clone(ctx context.Context) (Storage, error) {
	m, err := s.load()
	if err != nil {
		return nil, err
	}
	dup := NewJSONFileStorage(s.Path + ".clone")
	if err := dup.save(m); err != nil {
		return nil, err
	}
	return dup, nil
}
