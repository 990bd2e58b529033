package dag

import "errors"

var (
	// ErrNotFound indicates no entry is stored under an address. Resolution
	// operations report it as an empty result rather than an error.
	ErrNotFound = errors.New("dag: entry not found")

	// ErrValidation indicates the publication policy rejected an entry.
	ErrValidation = errors.New("dag: entry rejected by policy")

	// ErrSerialization indicates stored bytes could not be encoded or
	// decoded as the expected entry kind.
	ErrSerialization = errors.New("dag: serialization failure")

	// ErrIdentity indicates no caller identity is available to bind as author.
	ErrIdentity = errors.New("dag: caller identity unavailable")

	// ErrUndefinedAddress indicates an address field was left empty.
	ErrUndefinedAddress = errors.New("dag: undefined address")
)
