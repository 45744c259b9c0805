package objectarray

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// JSONFileBackend is the ModeSimple backend: the whole item list lives
// in one small JSON file, written atomically via tmp-then-rename.
type JSONFileBackend struct {
	Path string
}

func NewJSONFileBackend(path string) *JSONFileBackend {
	return &JSONFileBackend{Path: path}
}

type jsonFileBody struct {
	Items []string `json:"items"`
}

func (b *JSONFileBackend) Load(ctx context.Context) ([]objid.ObjId, error) {
	raw, err := os.ReadFile(b.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var body jsonFileBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	items := make([]objid.ObjId, 0, len(body.Items))
	for _, s := range body.Items {
		id, err := objid.Parse(s)
		if err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	return items, nil
}

func (b *JSONFileBackend) Save(ctx context.Context, items []objid.ObjId) error {
	body := jsonFileBody{Items: make([]string, len(items))}
	for i, id := range items {
		body.Items[i] = id.String()
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(b.Path), 0o755); err != nil {
		return err
	}
	tmp := b.Path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, b.Path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
