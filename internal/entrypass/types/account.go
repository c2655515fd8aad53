package types

import (
	"math"

	"github.com/entrypass/server/internal/ledger"
)

// MaxAmount is the largest balance, price or supply the ledger stores.
const MaxAmount uint64 = math.MaxInt64

type Account struct {
	Address ledger.Address `json:"address" cbor:"1,keyasint"`
	Balance uint64         `json:"balance" cbor:"2,keyasint"`
}

type DepositRequest struct {
	Amount uint64 `json:"amount"`
}
