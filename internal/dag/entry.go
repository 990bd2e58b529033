package dag

import (
	"encoding/json"
	"fmt"
)

// Kind tags the payload carried by an Entry.
type Kind string

const (
	KindBlob   Kind = "blob"
	KindTree   Kind = "tree"
	KindCommit Kind = "commit"
)

// envelopeVersion is stamped on every envelope.
const envelopeVersion = 1

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindBlob, KindTree, KindCommit:
		return true
	}
	return false
}

// Entry is the unit handed to a store: a kind tag plus the canonical payload.
type Entry struct {
	Kind    Kind
	Payload json.RawMessage
}

type envelope struct {
	V       int             `json:"v"`
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// newEntry canonicalizes a payload value into an Entry of the given kind.
func newEntry(kind Kind, payload interface{}) (*Entry, error) {
	data, err := CanonicalJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s: %v", ErrSerialization, kind, err)
	}
	return &Entry{Kind: kind, Payload: data}, nil
}

// Bytes returns the canonical envelope encoding. The Address of an entry is
// derived from exactly these bytes.
func (e *Entry) Bytes() ([]byte, error) {
	if !e.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrSerialization, e.Kind)
	}
	data, err := CanonicalJSON(envelope{V: envelopeVersion, Type: e.Kind, Payload: e.Payload})
	if err != nil {
		return nil, fmt.Errorf("%w: encode envelope: %v", ErrSerialization, err)
	}
	return data, nil
}

// Address computes the content address of e.
func (e *Entry) Address() (Address, error) {
	data, err := e.Bytes()
	if err != nil {
		return Undef, err
	}
	return ComputeAddress(data)
}

// DecodeEntry parses envelope bytes as read back from a store.
func DecodeEntry(data []byte) (*Entry, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", ErrSerialization, err)
	}
	if env.V != envelopeVersion {
		return nil, fmt.Errorf("%w: unsupported envelope version %d", ErrSerialization, env.V)
	}
	if !env.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrSerialization, env.Type)
	}
	return &Entry{Kind: env.Type, Payload: env.Payload}, nil
}

// decodePayload unmarshals e's payload into v after checking its kind.
func (e *Entry) decodePayload(want Kind, v interface{}) error {
	if e == nil {
		return fmt.Errorf("%w: nil entry", ErrSerialization)
	}
	if e.Kind != want {
		return fmt.Errorf("%w: entry is a %s, want %s", ErrSerialization, e.Kind, want)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrSerialization, want, err)
	}
	return nil
}
