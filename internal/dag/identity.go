package dag

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gocid "github.com/ipfs/go-cid"
	"github.com/mitchellh/go-homedir"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
)

const identityRelPath = ".config/memex/identity.json"

// didKeyPrefix precedes the base58btc multibase string of a did:key.
const didKeyPrefix = "did:key:"

// ed25519Multicodec is the multicodec prefix for Ed25519 public keys (0xED01).
var ed25519Multicodec = []byte{0xed, 0x01}

// libp2p protobuf prefix: field1=varint(1) Ed25519, field2=len(32).
var libp2pPubkeyPrefix = []byte{0x08, 0x01, 0x12, 0x20}

// Caller supplies the author address bound to new commits.
type Caller interface {
	AuthorAddress() (Address, error)
}

// Identity holds an Ed25519 keypair and the derived DID.
type Identity struct {
	DID        string `json:"did"`
	PublicKey  string `json:"public_key"`  // base64-encoded 32 bytes
	PrivateKey string `json:"private_key"` // base64-encoded 32-byte seed
}

var _ Caller = (*Identity)(nil)

// DefaultIdentityPath returns ~/.config/memex/identity.json, the identity
// shared with the other memex tools.
func DefaultIdentityPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("%w: home directory: %v", ErrIdentity, err)
	}
	return filepath.Join(home, identityRelPath), nil
}

// LoadIdentity reads the identity file at path, or generates a new one if missing.
func LoadIdentity(path string) (*Identity, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty identity path", ErrIdentity)
	}

	data, err := os.ReadFile(path)
	if err == nil {
		var id Identity
		if err := json.Unmarshal(data, &id); err != nil {
			return nil, fmt.Errorf("%w: parse identity: %v", ErrIdentity, err)
		}
		if _, err := id.publicKey(); err != nil {
			return nil, err
		}
		return &id, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: read identity: %v", ErrIdentity, err)
	}

	id, err := GenerateIdentity()
	if err != nil {
		return nil, err
	}
	if err := id.save(path); err != nil {
		return nil, err
	}
	return id, nil
}

// GenerateIdentity creates a fresh in-memory keypair.
func GenerateIdentity() (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: generate key: %v", ErrIdentity, err)
	}
	return identityFromKey(pub, priv.Seed()), nil
}

// IdentityFromSeed derives an identity from a 32-byte Ed25519 seed.
func IdentityFromSeed(seed []byte) (*Identity, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed is %d bytes, want %d", ErrIdentity, len(seed), ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return identityFromKey(priv.Public().(ed25519.PublicKey), seed), nil
}

func identityFromKey(pub ed25519.PublicKey, seed []byte) *Identity {
	return &Identity{
		DID:        EncodeDIDKey(pub),
		PublicKey:  base64.StdEncoding.EncodeToString(pub),
		PrivateKey: base64.StdEncoding.EncodeToString(seed),
	}
}

func (id *Identity) save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: create identity dir: %v", ErrIdentity, err)
	}
	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal identity: %v", ErrIdentity, err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("%w: write identity: %v", ErrIdentity, err)
	}
	return nil
}

func (id *Identity) publicKey() (ed25519.PublicKey, error) {
	pub, err := base64.StdEncoding.DecodeString(id.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: decode public key: %v", ErrIdentity, err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: public key is %d bytes", ErrIdentity, len(pub))
	}
	if id.DID != "" {
		fromDID, err := DecodeDIDKey(id.DID)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(fromDID, pub) {
			return nil, fmt.Errorf("%w: DID does not match public key", ErrIdentity)
		}
	}
	return ed25519.PublicKey(pub), nil
}

// AuthorAddress returns the libp2p-key CID of the public key, the same value
// an IPNS name is derived from.
func (id *Identity) AuthorAddress() (Address, error) {
	if id == nil {
		return Undef, ErrIdentity
	}
	pub, err := id.publicKey()
	if err != nil {
		return Undef, err
	}
	return PublicKeyAddress(pub)
}

// PublicKeyAddress encodes an Ed25519 public key as a libp2p-key CIDv1 with
// an identity multihash.
func PublicKeyAddress(pub ed25519.PublicKey) (Address, error) {
	protobuf := append(append([]byte{}, libp2pPubkeyPrefix...), pub...)
	mh, err := multihash.Sum(protobuf, multihash.IDENTITY, -1)
	if err != nil {
		return Undef, fmt.Errorf("%w: identity multihash: %v", ErrIdentity, err)
	}
	return AddressFromCid(gocid.NewCidV1(gocid.Libp2pKey, mh)), nil
}

// EncodeDIDKey encodes a raw Ed25519 public key as did:key:z... using the
// multicodec 0xED01 prefix and base58btc.
func EncodeDIDKey(publicKey []byte) string {
	prefixed := append(append([]byte{}, ed25519Multicodec...), publicKey...)
	encoded, _ := multibase.Encode(multibase.Base58BTC, prefixed)
	return didKeyPrefix + encoded
}

// DecodeDIDKey returns the raw Ed25519 public key of a did:key.
func DecodeDIDKey(did string) ([]byte, error) {
	if !strings.HasPrefix(did, didKeyPrefix+"z") {
		return nil, fmt.Errorf("%w: invalid DID format: %s", ErrIdentity, did)
	}
	enc, data, err := multibase.Decode(strings.TrimPrefix(did, didKeyPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: decode DID: %v", ErrIdentity, err)
	}
	if enc != multibase.Base58BTC {
		return nil, fmt.Errorf("%w: DID is not base58btc", ErrIdentity)
	}
	if !bytes.HasPrefix(data, ed25519Multicodec) {
		return nil, fmt.Errorf("%w: DID is not an Ed25519 key", ErrIdentity)
	}
	pub := data[len(ed25519Multicodec):]
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: DID key is %d bytes", ErrIdentity, len(pub))
	}
	return pub, nil
}
