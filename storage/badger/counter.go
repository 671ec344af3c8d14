package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docdex/core"
	"github.com/poiesic/docdex/storage"
)

// CounterRepository implements storage.CounterRepository for BadgerDB.
//
// Counters carry their window expiry in the value; an expired counter is
// logically absent and is recreated with a fresh window on the next access.
// Entries also carry a badger TTL of twice the window so stale counters are
// garbage-collected without a sweeper.
type CounterRepository struct {
	backend *Backend
	now     func() time.Time
}

var _ storage.CounterRepository = (*CounterRepository)(nil)

// NewCounterRepository creates a new CounterRepository.
func NewCounterRepository(backend *Backend) (*CounterRepository, error) {
	return &CounterRepository{
		backend: backend,
		now:     time.Now,
	}, nil
}

// Close is a no-op; the repository holds no resources beyond the backend.
func (r *CounterRepository) Close() error {
	return nil
}

// Increment applies one fixed-window check-and-increment for
// (subject, action). Returns true when the caller is rate-limited.
func (r *CounterRepository) Increment(ctx context.Context, subject, action string, limit uint64, window time.Duration) (bool, error) {
	var limited bool
	err := r.backend.WithConflictRetry(ctx, func(tx *badger.Txn) error {
		limited = false
		now := r.now().UTC()
		key := makeCounterKey(subject, action)

		counter, err := r.readCounter(tx, key)
		if err != nil {
			return err
		}

		if counter == nil || counter.Expired(now) {
			// First access in this window: fresh counter at 1.
			fresh := &core.RateCounter{Count: 1, ExpiresAt: now.Add(window)}
			if err := r.writeCounter(tx, key, fresh, window); err != nil {
				return err
			}
			return tx.Commit()
		}

		if counter.Count >= limit {
			// The count must not grow past the limit.
			limited = true
			return nil
		}

		counter.Count++
		if err := r.writeCounter(tx, key, counter, time.Until(counter.ExpiresAt)); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return false, err
	}
	return limited, nil
}

func (r *CounterRepository) readCounter(tx *badger.Txn, key []byte) (*core.RateCounter, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var counter *core.RateCounter
	err = item.Value(func(val []byte) error {
		var valErr error
		counter, valErr = storage.UnmarshalRateCounter(val)
		return valErr
	})
	if err != nil {
		return nil, err
	}
	return counter, nil
}

func (r *CounterRepository) writeCounter(tx *badger.Txn, key []byte, counter *core.RateCounter, window time.Duration) error {
	entry := badger.NewEntry(key, storage.MarshalRateCounter(counter))
	if window > 0 {
		entry = entry.WithTTL(2 * window)
	}
	return tx.SetEntry(entry)
}
