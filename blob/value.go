package blob

import (
	"context"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// SaveValue encodes v as msgpack and stores it under key.
func SaveValue(ctx context.Context, s Store, key string, v any) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(ctx, key, data)
}

// LoadValue reads key and decodes its msgpack contents into v.
func LoadValue(ctx context.Context, s Store, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
