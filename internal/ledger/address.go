package ledger

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// AddressSize is the byte length of every ledger address. Principal
// addresses are raw ed25519 public keys; record addresses are derived
// hashes of the same width.
const AddressSize = 32

var ErrInvalidAddress = errors.New("invalid ledger address")

// Address identifies either a principal (its ed25519 public key) or a
// record whose location was derived with DeriveAddress.
type Address [AddressSize]byte

// ParseAddress decodes the 64-character hex form produced by String.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimSpace(s)
	if len(s) != hex.EncodedLen(AddressSize) {
		return a, fmt.Errorf("%w: want %d hex chars, got %d", ErrInvalidAddress, hex.EncodedLen(AddressSize), len(s))
	}
	if _, err := hex.Decode(a[:], []byte(s)); err != nil {
		return a, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return a, nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromPublicKey converts an ed25519 public key into the principal
// address that owns it.
func AddressFromPublicKey(pub ed25519.PublicKey) (Address, error) {
	var a Address
	if len(pub) != ed25519.PublicKeySize {
		return a, fmt.Errorf("%w: public key has %d bytes", ErrInvalidAddress, len(pub))
	}
	copy(a[:], pub)
	return a, nil
}

func (a Address) PublicKey() ed25519.PublicKey {
	pub := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(pub, a[:])
	return pub
}

func (a Address) IsZero() bool { return a == Address{} }

func (a Address) String() string { return hex.EncodeToString(a[:]) }

// Short is a log-friendly prefix of the hex form.
func (a Address) Short() string { return a.String()[:12] }

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
