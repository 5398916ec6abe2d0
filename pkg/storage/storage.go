// Package storage implements the per-stream materialized table of spec
// §4.5: a `(primary key, variable name) -> value` table backed by an
// embedded KV store, honoring each variable's memory-only flag, plus the
// StreamStorage wrapper that observes a Stream and writes through.
//
// Grounded on gs_framework/state_storage.py's StateStorage (one Faust table
// per stream, keyed by a StorageKey(object_pk, state_var_name) tuple) and
// StateStreamStorage (the transformer hook and forward-through-in-memory
// mode). bbolt stands in for the Faust table: both are an embedded,
// durable, ordered KV store; bbolt needs no external broker dependency,
// matching the teacher's own choice of an embedded store for local state.
package storage

import (
	"fmt"
	"reflect"

	"go.etcd.io/bbolt"

	"github.com/riverforge/statestream/pkg/codec"
)

// Store is a single stream's materialized table: one bbolt bucket keyed by
// "<encoded pk>\x00<variable name>", valued with the variable's still
// codec-enveloped bytes.
type Store struct {
	db     *bbolt.DB
	bucket []byte
}

// Open opens (creating if necessary) a bbolt database at path and ensures
// the named bucket exists. name typically matches the owning Stream's name,
// mirroring the source's "table_of_storage_<name>" convention.
func Open(path, name string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	bucket := []byte("table_of_storage_" + name)
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: init bucket for %s: %w", name, err)
	}
	return &Store{db: db, bucket: bucket}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func storageKey(pk interface{}, varName string) ([]byte, error) {
	pkBytes, err := codec.Encode(pk)
	if err != nil {
		return nil, fmt.Errorf("storage: encode pk: %w", err)
	}
	key := make([]byte, 0, len(pkBytes)+1+len(varName))
	key = append(key, pkBytes...)
	key = append(key, 0)
	key = append(key, []byte(varName)...)
	return key, nil
}

// Contains reports whether a value has ever been written for (pk, varName).
func (s *Store) Contains(pk interface{}, varName string) (bool, error) {
	key, err := storageKey(pk, varName)
	if err != nil {
		return false, err
	}
	var found bool
	err = s.db.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket(s.bucket).Get(key) != nil
		return nil
	})
	return found, err
}

// WriteRaw persists already codec-enveloped bytes for (pk, varName), e.g.
// a stream.Value's Raw() form forwarded without a decode/re-encode round
// trip.
func (s *Store) WriteRaw(pk interface{}, varName string, raw []byte) error {
	key, err := storageKey(pk, varName)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put(key, raw)
	})
}

// Write encodes v and persists it for (pk, varName).
func (s *Store) Write(pk interface{}, varName string, v interface{}) error {
	raw, err := codec.Encode(v)
	if err != nil {
		return fmt.Errorf("storage: encode value for %s: %w", varName, err)
	}
	return s.WriteRaw(pk, varName, raw)
}

// Delete removes the value stored for (pk, varName), matching
// StateStorage.delete_state_vars.
func (s *Store) Delete(pk interface{}, varName string) error {
	key, err := storageKey(pk, varName)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Delete(key)
	})
}

// ReadRaw returns the still-enveloped bytes stored for (pk, varName), and
// false if nothing has been written yet.
func (s *Store) ReadRaw(pk interface{}, varName string) ([]byte, bool, error) {
	key, err := storageKey(pk, varName)
	if err != nil {
		return nil, false, err
	}
	var raw []byte
	err = s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(s.bucket).Get(key); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	return raw, raw != nil, err
}

// Read decodes the value stored for (pk, varName) into T, returning
// defaultVal and ok=false if nothing has been written yet.
func Read[T any](s *Store, pk interface{}, varName string, defaultVal T) (T, bool, error) {
	raw, ok, err := s.ReadRaw(pk, varName)
	if err != nil || !ok {
		return defaultVal, false, err
	}
	var v T
	if err := codec.Decode(raw, &v); err != nil {
		return defaultVal, false, fmt.Errorf("storage: decode %s: %w", varName, err)
	}
	return v, true, nil
}

// ReadAny decodes the value stored for (pk, varName) into a generic
// interface{}, for callers (e.g. pkg/entity's StorageAsStateReader) that
// only know the target type via reflection over a statevar.Variable's
// declared default.
func ReadAny(s *Store, pk interface{}, varName string, defaultVal interface{}) (interface{}, error) {
	raw, ok, err := s.ReadRaw(pk, varName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return defaultVal, nil
	}

	if defaultVal != nil {
		target := reflect.New(reflect.TypeOf(defaultVal))
		if err := codec.Decode(raw, target.Interface()); err == nil {
			return target.Elem().Interface(), nil
		}
	}
	return codec.DecodeAny(raw)
}
