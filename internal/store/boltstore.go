package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/systemshift/memex-vc/internal/dag"
	"go.etcd.io/bbolt"
)

var bucketEntries = []byte("entries")

// BoltStore keeps entries in a single bbolt bucket keyed by binary address.
type BoltStore struct {
	db *bbolt.DB
}

var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if dbPath == "" {
		return nil, ErrInvalidDir
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEntries)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create bucket %q: %w", bucketEntries, err)
	}
	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// Put implements Store.
func (s *BoltStore) Put(ctx context.Context, e *dag.Entry) (dag.Address, error) {
	if err := ctx.Err(); err != nil {
		return dag.Undef, err
	}
	data, addr, err := encode(e)
	if err != nil {
		return dag.Undef, err
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		key := addr.Bytes()
		if b.Get(key) != nil {
			return nil
		}
		return b.Put(key, data)
	})
	if err != nil {
		return dag.Undef, fmt.Errorf("store: put %s: %w", addr, err)
	}
	return addr, nil
}

// Get implements Store.
func (s *BoltStore) Get(ctx context.Context, addr dag.Address) (*dag.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkAddress(addr); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketEntries).Get(addr.Bytes())
		if v == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, addr)
		}
		// bbolt values are only valid inside the transaction.
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decode(addr, data)
}

// Count returns the number of stored entries.
func (s *BoltStore) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketEntries).Stats().KeyN
		return nil
	})
	return n, err
}
