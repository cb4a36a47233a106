package domain

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// IdentitySize is the byte length of an identity handle.
const IdentitySize = 32

// Namespace tags used to derive record addresses.
const (
	SeedCharity  = "charity"
	SeedTreasury = "treasury"
)

const derivationMarker = "ProgramDerivedAddress"

// Identity is an opaque 32-byte principal or address handle, base58 encoded in text form.
type Identity [IdentitySize]byte

// ParseIdentity decodes a base58 identity.
func ParseIdentity(s string) (Identity, error) {
	var id Identity

	s = strings.TrimSpace(s)
	if s == "" {
		return id, fmt.Errorf("%w: empty", ErrInvalidIdentity)
	}

	raw, err := base58.Decode(s)
	if err != nil {
		return id, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}

	if len(raw) != IdentitySize {
		return id, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidIdentity, IdentitySize, len(raw))
	}

	copy(id[:], raw)
	return id, nil
}

// MustParseIdentity is like ParseIdentity but panics on error.
func MustParseIdentity(s string) Identity {
	id, err := ParseIdentity(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the base58 form.
func (id Identity) String() string {
	return base58.Encode(id[:])
}

// IsZero reports whether id is the all-zero identity.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// MarshalText implements encoding.TextMarshaler.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// DeriveAddress derives the address of the record identified by seed under program.
// The same inputs always produce the same address.
func DeriveAddress(program Identity, seed string) Identity {
	h := sha256.New()
	h.Write([]byte(seed))
	h.Write(program[:])
	h.Write([]byte(derivationMarker))

	var id Identity
	copy(id[:], h.Sum(nil))
	return id
}
