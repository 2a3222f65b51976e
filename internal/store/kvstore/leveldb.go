package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBEngine is an Engine backed by goleveldb.
type LevelDBEngine struct {
	mu     sync.RWMutex
	db     *leveldb.DB
	closed bool
}

var syncWrite = &opt.WriteOptions{Sync: true}

// OpenLevelDB opens or creates a LevelDB database at path.
func OpenLevelDB(path string) (*LevelDBEngine, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", path, err)
	}
	return &LevelDBEngine{db: db}, nil
}

func (l *LevelDBEngine) handle(ctx context.Context) (*leveldb.DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.closed {
		return nil, ErrEngineClosed
	}
	return l.db, nil
}

func (l *LevelDBEngine) Read(ctx context.Context, key []byte) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	db, err := l.handle(ctx)
	if err != nil {
		return nil, err
	}
	value, err := db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrKeyNotFound
	}
	return value, err
}

func (l *LevelDBEngine) Write(ctx context.Context, key, value []byte) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	db, err := l.handle(ctx)
	if err != nil {
		return err
	}
	return db.Put(key, value, syncWrite)
}

func (l *LevelDBEngine) Delete(ctx context.Context, key []byte) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	db, err := l.handle(ctx)
	if err != nil {
		return err
	}
	return db.Delete(key, syncWrite)
}

func (l *LevelDBEngine) Batch(ctx context.Context, ops []BatchOperation) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	db, err := l.handle(ctx)
	if err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	for _, op := range ops {
		switch op.Type {
		case BatchPut:
			batch.Put(op.Key, op.Value)
		case BatchDelete:
			batch.Delete(op.Key)
		default:
			return fmt.Errorf("unknown batch operation %d", op.Type)
		}
	}
	return db.Write(batch, syncWrite)
}

func (l *LevelDBEngine) Iterator(ctx context.Context, start, end []byte) (Iterator, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	db, err := l.handle(ctx)
	if err != nil {
		return nil, err
	}
	return &levelIterator{iter: db.NewIterator(&util.Range{Start: start, Limit: end}, nil)}, nil
}

func (l *LevelDBEngine) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.db.Close()
}

type levelIterator struct {
	iter iterator.Iterator
}

func (it *levelIterator) Next() bool { return it.iter.Next() }

func (it *levelIterator) Key() []byte { return append([]byte(nil), it.iter.Key()...) }

func (it *levelIterator) Value() []byte { return append([]byte(nil), it.iter.Value()...) }

func (it *levelIterator) Error() error { return it.iter.Error() }

func (it *levelIterator) Close() error {
	it.iter.Release()
	return nil
}
