package dag

import (
	"encoding/json"
	"fmt"

	gocid "github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
)

// Address is the content-derived identifier of a stored entry. It wraps a
// CIDv1 so the same value can be handed to any IPFS-compatible store.
type Address struct {
	c gocid.Cid
}

// Undef is the zero Address. It never refers to an entry.
var Undef = Address{}

// ComputeAddress computes a CIDv1 (dag-json codec, SHA2-256) for canonical
// envelope bytes.
func ComputeAddress(canonical []byte) (Address, error) {
	mh, err := multihash.Sum(canonical, multihash.SHA2_256, -1)
	if err != nil {
		return Undef, fmt.Errorf("multihash: %w", err)
	}
	return Address{c: gocid.NewCidV1(gocid.DagJSON, mh)}, nil
}

// AddressFromCid wraps an existing CID.
func AddressFromCid(c gocid.Cid) Address {
	return Address{c: c}
}

// ParseAddress decodes the multibase string form of an Address.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Undef, ErrUndefinedAddress
	}
	c, err := gocid.Decode(s)
	if err != nil {
		return Undef, fmt.Errorf("parse address %q: %w", s, err)
	}
	return Address{c: c}, nil
}

// AddressFromBytes decodes the binary CID form, as used for store keys.
func AddressFromBytes(b []byte) (Address, error) {
	c, err := gocid.Cast(b)
	if err != nil {
		return Undef, fmt.Errorf("cast address: %w", err)
	}
	return Address{c: c}, nil
}

// Cid returns the underlying CID.
func (a Address) Cid() gocid.Cid { return a.c }

// Defined reports whether a is not Undef.
func (a Address) Defined() bool { return a.c.Defined() }

// Bytes returns the binary CID.
func (a Address) Bytes() []byte { return a.c.Bytes() }

// Equals reports whether two addresses name the same content.
func (a Address) Equals(b Address) bool { return a.c.Equals(b.c) }

// String returns the base32lower multibase encoding, or "" for Undef.
func (a Address) String() string {
	if !a.Defined() {
		return ""
	}
	encoded, _ := multibase.Encode(multibase.Base32, a.c.Bytes())
	return encoded
}

// Filename returns the String form, which is safe to use as a file name.
func (a Address) Filename() string { return a.String() }

// MarshalJSON encodes the address as its string form.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts the string form. An empty string decodes to Undef.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("address: %w", err)
	}
	if s == "" {
		*a = Undef
		return nil
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
