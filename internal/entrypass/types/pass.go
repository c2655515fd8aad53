package types

import (
	"fmt"
	"math"

	"github.com/entrypass/server/internal/ledger"
)

// NeverExpires is the expires_at sentinel for passes without an end.
const NeverExpires int64 = math.MaxInt64

// PassStatus is the lifecycle state of a UserPass. The only transition
// is Active → Revoked.
type PassStatus uint8

const (
	PassActive PassStatus = iota + 1
	PassRevoked
)

func (s PassStatus) String() string {
	switch s {
	case PassActive:
		return "active"
	case PassRevoked:
		return "revoked"
	default:
		return "unknown"
	}
}

func (s PassStatus) MarshalText() ([]byte, error) {
	if s != PassActive && s != PassRevoked {
		return nil, fmt.Errorf("invalid pass status %d", s)
	}
	return []byte(s.String()), nil
}

func (s *PassStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "active":
		*s = PassActive
	case "revoked":
		*s = PassRevoked
	default:
		return fmt.Errorf("invalid pass status %q", text)
	}
	return nil
}

// UserPass is one buyer's purchased access right.
type UserPass struct {
	Address     ledger.Address `json:"address" cbor:"1,keyasint"`
	Owner       ledger.Address `json:"owner" cbor:"2,keyasint"`
	Collection  ledger.Address `json:"pass_collection" cbor:"3,keyasint"`
	PurchasedAt int64          `json:"purchased_at" cbor:"4,keyasint"`
	ExpiresAt   int64          `json:"expires_at" cbor:"5,keyasint"`
	Status      PassStatus     `json:"status" cbor:"6,keyasint"`
}

func (p UserPass) IsActive() bool     { return p.Status == PassActive }
func (p UserPass) NeverExpires() bool { return p.ExpiresAt == NeverExpires }

// Revoked returns p in the revoked state and whether that changed it.
func (p UserPass) Revoked() (UserPass, bool) {
	if p.Status == PassRevoked {
		return p, false
	}
	p.Status = PassRevoked
	return p, true
}

// Reasons reported alongside a verification outcome.
const (
	ReasonValid         = "valid"
	ReasonRevoked       = "revoked"
	ReasonOwnerMismatch = "owner_mismatch"
	ReasonExpired       = "expired"
)

// Check reports whether p admits claimedOwner at unix second now. A pass
// is invalid exactly at its expiry instant and after.
func (p UserPass) Check(claimedOwner ledger.Address, now int64) (bool, string) {
	switch {
	case !p.IsActive():
		return false, ReasonRevoked
	case p.Owner != claimedOwner:
		return false, ReasonOwnerMismatch
	case !p.NeverExpires() && now >= p.ExpiresAt:
		return false, ReasonExpired
	default:
		return true, ReasonValid
	}
}

// PurchasePassRequest is the body a buyer signs to buy a pass. Organizer
// is the payee the buyer expects; it must match the collection.
type PurchasePassRequest struct {
	Buyer      ledger.Address `json:"buyer" cbor:"1,keyasint"`
	Organizer  ledger.Address `json:"organizer" cbor:"2,keyasint"`
	Collection ledger.Address `json:"pass_collection" cbor:"3,keyasint"`
}

// RevokePassRequest is the body an organizer signs to revoke a pass.
type RevokePassRequest struct {
	Organizer  ledger.Address `json:"organizer" cbor:"1,keyasint"`
	Pass       ledger.Address `json:"pass" cbor:"2,keyasint"`
	Collection ledger.Address `json:"pass_collection" cbor:"3,keyasint"`
}

// VerifyPassRequest asks whether Pass currently admits Owner. At is an
// optional unix second; the ledger clock is used when it is nil.
type VerifyPassRequest struct {
	Pass  ledger.Address `json:"pass" cbor:"1,keyasint"`
	Owner ledger.Address `json:"owner" cbor:"2,keyasint"`
	At    *int64         `json:"at,omitempty" cbor:"3,keyasint,omitempty"`
}

type Verification struct {
	Valid     bool     `json:"valid" cbor:"1,keyasint"`
	Reason    string   `json:"reason" cbor:"2,keyasint"`
	CheckedAt int64    `json:"checked_at" cbor:"3,keyasint"`
	Pass      UserPass `json:"pass" cbor:"4,keyasint"`
}
