package store

import (
	"errors"
	"fmt"

	"github.com/systemshift/memex-vc/internal/dag"
)

var (
	// ErrNotFound indicates no entry exists for the given address.
	ErrNotFound = fmt.Errorf("store: %w", dag.ErrNotFound)

	// ErrCorrupt indicates stored bytes do not hash to their address.
	ErrCorrupt = errors.New("store: stored bytes do not match address")

	// ErrUnknownBackend indicates an unrecognized backend name.
	ErrUnknownBackend = errors.New("store: unknown backend")

	// ErrInvalidDir indicates the storage directory path is empty.
	ErrInvalidDir = errors.New("store: storage directory must not be empty")

	// ErrRemote indicates the Kubo daemon returned an error.
	ErrRemote = errors.New("store: remote store error")
)
