package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
)

// PebbleEngine is an Engine backed by Pebble.
type PebbleEngine struct {
	mu     sync.RWMutex
	db     *pebble.DB
	closed bool
}

// OpenPebble opens or creates a Pebble database at path.
func OpenPebble(path string) (*PebbleEngine, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", path, err)
	}
	return &PebbleEngine{db: db}, nil
}

func (p *PebbleEngine) handle() (*pebble.DB, error) {
	if p.closed {
		return nil, ErrEngineClosed
	}
	return p.db, nil
}

func (p *PebbleEngine) Read(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	db, err := p.handle()
	if err != nil {
		return nil, err
	}

	value, closer, err := db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (p *PebbleEngine) Write(ctx context.Context, key, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	db, err := p.handle()
	if err != nil {
		return err
	}
	return db.Set(key, value, pebble.Sync)
}

func (p *PebbleEngine) Delete(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	db, err := p.handle()
	if err != nil {
		return err
	}
	return db.Delete(key, pebble.Sync)
}

func (p *PebbleEngine) Batch(ctx context.Context, ops []BatchOperation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	db, err := p.handle()
	if err != nil {
		return err
	}

	batch := db.NewBatch()
	defer batch.Close()
	for _, op := range ops {
		switch op.Type {
		case BatchPut:
			err = batch.Set(op.Key, op.Value, nil)
		case BatchDelete:
			err = batch.Delete(op.Key, nil)
		default:
			err = fmt.Errorf("unknown batch operation %d", op.Type)
		}
		if err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

func (p *PebbleEngine) Iterator(ctx context.Context, start, end []byte) (Iterator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	db, err := p.handle()
	if err != nil {
		return nil, err
	}
	iter, err := db.NewIter(&pebble.IterOptions{LowerBound: start, UpperBound: end})
	if err != nil {
		return nil, err
	}
	return &pebbleIterator{iter: iter}, nil
}

func (p *PebbleEngine) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.db.Close()
}

type pebbleIterator struct {
	iter    *pebble.Iterator
	started bool
}

func (it *pebbleIterator) Next() bool {
	if !it.started {
		it.started = true
		return it.iter.First()
	}
	return it.iter.Next()
}

func (it *pebbleIterator) Key() []byte {
	return append([]byte(nil), it.iter.Key()...)
}

func (it *pebbleIterator) Value() []byte {
	return append([]byte(nil), it.iter.Value()...)
}

func (it *pebbleIterator) Error() error { return it.iter.Error() }

func (it *pebbleIterator) Close() error { return it.iter.Close() }
