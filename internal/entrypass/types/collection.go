package types

import (
	"github.com/entrypass/server/internal/ledger"
)

const (
	MaxNameBytes        = 50
	MaxDescriptionBytes = 200
)

// PassCollection is one sellable class of pass created by an organizer.
type PassCollection struct {
	Address        ledger.Address `json:"address" cbor:"1,keyasint"`
	Organizer      ledger.Address `json:"organizer" cbor:"2,keyasint"`
	Name           string         `json:"name" cbor:"3,keyasint"`
	Description    string         `json:"description" cbor:"4,keyasint"`
	Price          uint64         `json:"price" cbor:"5,keyasint"`
	MaxSupply      uint64         `json:"max_supply" cbor:"6,keyasint"`
	CurrentSupply  uint64         `json:"current_supply" cbor:"7,keyasint"`
	ValidityPeriod int64          `json:"validity_period" cbor:"8,keyasint"` // seconds; <= 0 never expires
	CreatedAt      int64          `json:"created_at" cbor:"9,keyasint"`      // unix seconds
}

func (c PassCollection) SoldOut() bool { return c.CurrentSupply >= c.MaxSupply }

func (c PassCollection) Remaining() uint64 {
	if c.SoldOut() {
		return 0
	}
	return c.MaxSupply - c.CurrentSupply
}

// ExpiryFor computes expires_at for a pass bought at purchasedAt.
func (c PassCollection) ExpiryFor(purchasedAt int64) int64 {
	if c.ValidityPeriod <= 0 {
		return NeverExpires
	}
	if purchasedAt > NeverExpires-c.ValidityPeriod {
		return NeverExpires
	}
	return purchasedAt + c.ValidityPeriod
}

// CreateCollectionRequest is the body an organizer signs to create a
// collection.
type CreateCollectionRequest struct {
	Organizer      ledger.Address `json:"organizer" cbor:"1,keyasint"`
	Name           string         `json:"name" cbor:"2,keyasint"`
	Description    string         `json:"description" cbor:"3,keyasint"`
	Price          uint64         `json:"price" cbor:"4,keyasint"`
	MaxSupply      uint64         `json:"max_supply" cbor:"5,keyasint"`
	ValidityPeriod int64          `json:"validity_period" cbor:"6,keyasint"`
}
