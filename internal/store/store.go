// Package store holds the content-addressed entry stores the object model is
// published into. Every backend derives the address itself, so Put is
// idempotent and a read that does not hash back to its key is reported as
// corrupt rather than returned.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/systemshift/memex-vc/internal/dag"
)

// Store is the put/get contract the object model consumes.
type Store interface {
	// Put stores e and returns its address. Storing identical content again
	// is a no-op that returns the same address.
	Put(ctx context.Context, e *dag.Entry) (dag.Address, error)

	// Get returns the entry stored under addr, or an error wrapping
	// ErrNotFound when nothing is stored there.
	Get(ctx context.Context, addr dag.Address) (*dag.Entry, error)
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendKubo   = "kubo"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	Dir     string // file: objects directory; bolt: database file
	KuboAPI string
}

// Closer is implemented by stores holding resources.
type Closer interface {
	Close() error
}

// Open builds the store named by opts.Backend.
func Open(opts Options) (Store, error) {
	switch strings.ToLower(opts.Backend) {
	case BackendMemory, "":
		return NewMemStore(), nil
	case BackendFile:
		return NewFileStore(opts.Dir)
	case BackendBolt:
		return OpenBoltStore(opts.Dir)
	case BackendKubo:
		return NewKuboStore(opts.KuboAPI), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// Close releases s if it holds resources.
func Close(s Store) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}

// encode returns the canonical bytes of e together with its address.
func encode(e *dag.Entry) ([]byte, dag.Address, error) {
	if e == nil {
		return nil, dag.Undef, fmt.Errorf("%w: nil entry", dag.ErrSerialization)
	}
	data, err := e.Bytes()
	if err != nil {
		return nil, dag.Undef, err
	}
	addr, err := dag.ComputeAddress(data)
	if err != nil {
		return nil, dag.Undef, err
	}
	return data, addr, nil
}

// decode parses bytes read under addr, checking they hash back to addr.
func decode(addr dag.Address, data []byte) (*dag.Entry, error) {
	got, err := dag.ComputeAddress(data)
	if err != nil {
		return nil, err
	}
	if !got.Equals(addr) {
		return nil, fmt.Errorf("%w: %s hashes to %s", ErrCorrupt, addr, got)
	}
	return dag.DecodeEntry(data)
}

func checkAddress(addr dag.Address) error {
	if !addr.Defined() {
		return dag.ErrUndefinedAddress
	}
	return nil
}
