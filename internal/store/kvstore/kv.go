// Package kvstore implements store.Store on an embedded key-value engine.
// Pebble and LevelDB are supported; records are msgpack encoded.
package kvstore

import (
	"context"
	"errors"
)

var (
	// ErrKeyNotFound is returned by Read when the key is absent.
	ErrKeyNotFound = errors.New("key not found")
	// ErrEngineClosed is returned after Close.
	ErrEngineClosed = errors.New("engine is closed")
)

// Engine is the minimal ordered key-value surface the store needs.
type Engine interface {
	Read(ctx context.Context, key []byte) ([]byte, error)
	Write(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error
	Batch(ctx context.Context, ops []BatchOperation) error
	// Iterator walks keys in [start, end) in ascending order.
	Iterator(ctx context.Context, start, end []byte) (Iterator, error)
	Close() error
}

// Iterator walks a key range. Key and Value return copies.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// BatchOperationType is the kind of a batched mutation.
type BatchOperationType int

const (
	BatchPut BatchOperationType = iota
	BatchDelete
)

// BatchOperation is one mutation applied atomically with its batch.
type BatchOperation struct {
	Type  BatchOperationType
	Key   []byte
	Value []byte
}

// Put returns a put operation.
func Put(key, value []byte) BatchOperation {
	return BatchOperation{Type: BatchPut, Key: key, Value: value}
}

// Del returns a delete operation.
func Del(key []byte) BatchOperation {
	return BatchOperation{Type: BatchDelete, Key: key}
}

// prefixEnd returns the smallest key greater than every key with prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
