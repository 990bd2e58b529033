package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/systemshift/memex-vc/internal/dag"
)

// FileStore keeps one file per entry, named by the base32 address.
type FileStore struct {
	dir string // path to objects/ directory
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore at the given directory.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, ErrInvalidDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create objects dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(addr dag.Address) string {
	return filepath.Join(s.dir, addr.Filename())
}

// Put implements Store. An existing file is left untouched.
func (s *FileStore) Put(ctx context.Context, e *dag.Entry) (dag.Address, error) {
	if err := ctx.Err(); err != nil {
		return dag.Undef, err
	}
	data, addr, err := encode(e)
	if err != nil {
		return dag.Undef, err
	}
	path := s.path(addr)
	if _, err := os.Stat(path); err == nil {
		return addr, nil // already exists
	}
	if err := writeAtomic(path, data, 0444); err != nil {
		return dag.Undef, fmt.Errorf("write object %s: %w", addr, err)
	}
	return addr, nil
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context, addr dag.Address) (*dag.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkAddress(addr); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(addr))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, addr)
	}
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", addr, err)
	}
	return decode(addr, data)
}

// Has reports whether an entry file exists for addr.
func (s *FileStore) Has(addr dag.Address) bool {
	if !addr.Defined() {
		return false
	}
	_, err := os.Stat(s.path(addr))
	return err == nil
}

// writeAtomic writes data to path via tempfile -> fsync -> rename. The
// tempfile lives in the same directory so the rename stays on one filesystem
// and concurrent writers of the same entry converge on identical bytes.
func writeAtomic(path string, data []byte, perm os.FileMode) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err = f.Chmod(perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp to target: %w", err)
	}
	return nil
}
