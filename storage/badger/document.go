package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docdex/core"
	"github.com/poiesic/docdex/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	return &DocumentRepository{backend: backend}, nil
}

// Close is a no-op; the repository holds no resources beyond the backend.
func (r *DocumentRepository) Close() error {
	return nil
}

// Insert adds a document record, rejecting duplicates for (Hash, Owner).
func (r *DocumentRepository) Insert(ctx context.Context, doc *core.Document) error {
	if err := core.ValidateDocument(doc); err != nil {
		return err
	}

	return r.backend.WithConflictRetry(ctx, func(tx *badger.Txn) error {
		key := makeDocumentKey(doc.Hash, doc.Owner)

		_, err := tx.Get(key)
		if err == nil {
			return storage.ErrDuplicateKey
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		doc.InsertedAt = time.Now().UTC()
		doc.UpdatedAt = doc.InsertedAt

		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// Find retrieves the record for (hash, owner).
func (r *DocumentRepository) Find(ctx context.Context, hash core.ContentHash, owner string) (*core.Document, error) {
	var doc *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = r.readDocument(tx, hash, owner)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateStatus unconditionally sets the processing status.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, hash core.ContentHash, owner string, status core.ProcessingStatus) error {
	if err := core.ValidateStatus(status); err != nil {
		return err
	}

	return r.backend.WithConflictRetry(ctx, func(tx *badger.Txn) error {
		doc, err := r.readDocument(tx, hash, owner)
		if err != nil {
			return err
		}

		doc.Status = status
		doc.UpdatedAt = time.Now().UTC()

		if err := tx.Set(makeDocumentKey(hash, owner), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// SetStatusIf atomically swaps the status from `from` to `to`. The compare
// and the write happen inside one transaction, so two concurrent callers
// cannot both observe `from` and proceed.
func (r *DocumentRepository) SetStatusIf(ctx context.Context, hash core.ContentHash, owner string, from, to core.ProcessingStatus) (bool, error) {
	if err := core.ValidateStatusTransition(from, to); err != nil {
		return false, err
	}

	var swapped bool
	err := r.backend.WithConflictRetry(ctx, func(tx *badger.Txn) error {
		swapped = false

		doc, err := r.readDocument(tx, hash, owner)
		if err != nil {
			return err
		}
		if doc.Status != from {
			return nil
		}

		doc.Status = to
		doc.UpdatedAt = time.Now().UTC()

		if err := tx.Set(makeDocumentKey(hash, owner), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		swapped = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return swapped, nil
}

// ResetStatus administratively returns a record to NOT_STARTED.
func (r *DocumentRepository) ResetStatus(ctx context.Context, hash core.ContentHash, owner string) error {
	return r.UpdateStatus(ctx, hash, owner, core.StatusNotStarted)
}

// readDocument reads and deserializes a document inside a transaction.
// Returns storage.ErrNotFound when the key is absent.
func (r *DocumentRepository) readDocument(tx *badger.Txn, hash core.ContentHash, owner string) (*core.Document, error) {
	item, err := tx.Get(makeDocumentKey(hash, owner))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var valErr error
		doc, valErr = storage.UnmarshalDocument(val)
		return valErr
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
