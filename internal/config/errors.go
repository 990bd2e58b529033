package config

import "errors"

var (
	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrInvalidBackend indicates the store backend is not recognized.
	ErrInvalidBackend = errors.New("config: invalid store backend (must be \"memory\", \"file\", \"bolt\", or \"kubo\")")

	// ErrEmptyStoreDir indicates a disk-backed store has no location.
	ErrEmptyStoreDir = errors.New("config: store directory must not be empty")

	// ErrInvalidKuboAPI indicates the Kubo API URL is malformed.
	ErrInvalidKuboAPI = errors.New("config: invalid kubo API URL")

	// ErrInvalidLinkCheck indicates the link check mode is not recognized.
	ErrInvalidLinkCheck = errors.New("config: invalid link check (must be \"optimistic\" or \"strict\")")

	// ErrInvalidMaxChain indicates a negative ancestor limit.
	ErrInvalidMaxChain = errors.New("config: max_chain must not be negative")

	// ErrReadConfig indicates the configuration file could not be read.
	ErrReadConfig = errors.New("config: cannot read configuration")
)
