package docstore

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/goccy/go-json"
)

// TimestampLayout is the fixed-width UTC layout used for server timestamps, so
// that string order matches time order.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// Document is a stored document and its metadata.
type Document struct {
	Path       string
	ID         string
	Fields     map[string]any
	CreateTime time.Time
	UpdateTime time.Time
}

// DataTo decodes the document fields into v using its JSON tags.
func (d *Document) DataTo(v any) error {
	data, err := json.Marshal(d.Fields)
	if err != nil {
		return fmt.Errorf("encode fields of %s: %w", d.Path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", d.Path, err)
	}
	return nil
}

// Data returns a shallow copy of the fields.
func (d *Document) Data() map[string]any {
	return maps.Clone(d.Fields)
}

// record is the stored form of a document.
type record struct {
	Fields  map[string]any `json:"f"`
	Created time.Time      `json:"c"`
	Updated time.Time      `json:"u"`
}

func decodeRecord(key string, raw []byte) (*Document, error) {
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", key, err)
	}
	if r.Fields == nil {
		r.Fields = map[string]any{}
	}
	path, id := pathFromKey(key)
	return &Document{
		Path:       path,
		ID:         id,
		Fields:     r.Fields,
		CreateTime: r.Created,
		UpdateTime: r.Updated,
	}, nil
}

// toFields converts write input into a field map. Maps are taken as-is so they
// can carry transforms; anything else goes through its JSON encoding.
func toFields(data any) (map[string]any, error) {
	switch v := data.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return maps.Clone(v), nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document data: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("document data must encode to an object: %w", err)
	}
	return fields, nil
}

// GetAs reads the document at path and decodes it into a T.
func GetAs[T any](ctx context.Context, s *Store, path string) (*T, error) {
	doc, err := s.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var v T
	if err := doc.DataTo(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// DecodeAll decodes every document into a T, in order.
func DecodeAll[T any](docs []*Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := d.DataTo(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
