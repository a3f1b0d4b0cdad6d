// Package store persists client state as JSON values under string keys.
//
// It stands in for the browser's localStorage: whole values are read and
// overwritten, with no partial updates, transactions or schema versions.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/iksnae/modular-chat/internal"
)

// Store is a key-value store of string values.
type Store interface {
	// Get returns the value under key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Open returns the store described by dsn:
//
//	memory: or :memory:        in-process map
//	redis://host:port/db       Redis
//	sqlite://path, or a path   SQLite file
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "":
		return nil, fmt.Errorf("empty store location")
	case dsn == "memory:" || dsn == ":memory:":
		return NewMemoryStore(), nil
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		return NewRedisStore(ctx, dsn)
	case strings.HasPrefix(dsn, "sqlite://"):
		return NewSQLiteStore(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	default:
		return NewSQLiteStore(ctx, dsn)
	}
}

// ReadJSON decodes the value under key into v. A missing key leaves v
// untouched. A value that is not valid JSON is logged and treated the same
// way, so corrupt state reads as "no data", including values of the wrong
// shape.
func ReadJSON(ctx context.Context, s Store, key string, v interface{}) error {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok || raw == "" {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("ReadJSON %s: need a non-nil pointer, got %T", key, v)
	}
	// decode into a fresh value so a type mismatch halfway through leaves v untouched
	fresh := reflect.New(rv.Type().Elem())
	if err := json.Unmarshal([]byte(raw), fresh.Interface()); err != nil {
		internal.LogWarn("%v; using empty value", &internal.ParseError{Source: "store", Key: key, Err: err})
		return nil
	}
	rv.Elem().Set(fresh.Elem())
	return nil
}

// WriteJSON serializes v and overwrites the value under key.
func WriteJSON(ctx context.Context, s Store, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &internal.StorageError{Key: key, Op: "encode", Err: err}
	}
	return s.Set(ctx, key, string(data))
}
