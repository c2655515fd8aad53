package ledger

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
)

// Op names the instruction a signature authorizes. It is part of the
// signed bytes, so a signature for one op never verifies for another.
type Op string

const (
	OpCreateCollection Op = "create_collection"
	OpPurchasePass     Op = "purchase_pass"
	OpRevokePass       Op = "revoke_pass"
)

var (
	ErrMissingSignature = errors.New("signature is required")
	ErrInvalidSignature = errors.New("invalid ed25519 signature")
)

type instruction struct {
	Op   Op  `cbor:"1,keyasint"`
	Body any `cbor:"2,keyasint"`
}

// InstructionBytes returns the canonical bytes a principal signs to
// authorize op with the given request body.
func InstructionBytes(op Op, body any) ([]byte, error) {
	payload, err := Marshal(instruction{Op: op, Body: body})
	if err != nil {
		return nil, fmt.Errorf("encoding %s instruction: %w", op, err)
	}
	return payload, nil
}

// Sign produces the signature that VerifySignature accepts for the same
// op and body.
func Sign(priv ed25519.PrivateKey, op Op, body any) ([]byte, error) {
	payload, err := InstructionBytes(op, body)
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(priv, payload), nil
}

// VerifySignature checks that signer authorized op with body.
func VerifySignature(signer Address, op Op, body any, sig []byte) error {
	if len(sig) == 0 {
		return ErrMissingSignature
	}
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("%w: signature has %d bytes", ErrInvalidSignature, len(sig))
	}
	payload, err := InstructionBytes(op, body)
	if err != nil {
		return err
	}
	if !ed25519.Verify(signer.PublicKey(), payload, sig) {
		return ErrInvalidSignature
	}
	return nil
}

// Keypair is a principal's signing identity.
type Keypair struct {
	Address    Address
	PrivateKey ed25519.PrivateKey
}

func GenerateKeypair() (Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Keypair{}, fmt.Errorf("generating ed25519 keypair: %w", err)
	}
	addr, err := AddressFromPublicKey(pub)
	if err != nil {
		return Keypair{}, err
	}
	return Keypair{Address: addr, PrivateKey: priv}, nil
}

// KeypairFromSeed derives a keypair from a 32-byte seed.
func KeypairFromSeed(seed []byte) (Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return Keypair{}, fmt.Errorf("seed has %d bytes, want %d", len(seed), ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	addr, err := AddressFromPublicKey(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return Keypair{}, err
	}
	return Keypair{Address: addr, PrivateKey: priv}, nil
}

func (k Keypair) Sign(op Op, body any) ([]byte, error) {
	return Sign(k.PrivateKey, op, body)
}
