package store

import (
	"context"
	"errors"

	"github.com/entrypass/server/internal/entrypass/types"
	"github.com/entrypass/server/internal/ledger"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrAlreadyExists     = errors.New("record already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSupplyExhausted   = errors.New("supply exhausted")
	ErrBalanceOverflow   = errors.New("balance overflow")
)

// Tx is the set of record operations available inside one ledger
// transaction. Nothing done through a Tx is visible to anyone else until
// the enclosing Update returns nil; if it returns an error every change
// is discarded.
type Tx interface {
	Collection(ctx context.Context, addr ledger.Address) (types.PassCollection, error)
	// InsertCollection fails with ErrAlreadyExists if c.Address is taken.
	InsertCollection(ctx context.Context, c types.PassCollection) error
	// IncrementSupply is compare-and-increment: it adds one to
	// current_supply only while current_supply < max_supply, otherwise
	// it returns ErrSupplyExhausted. Returns the new supply.
	IncrementSupply(ctx context.Context, addr ledger.Address) (uint64, error)

	Pass(ctx context.Context, addr ledger.Address) (types.UserPass, error)
	// InsertPass fails with ErrAlreadyExists if p.Address is taken.
	InsertPass(ctx context.Context, p types.UserPass) error
	// DeactivatePass moves a pass to revoked. It never reactivates.
	DeactivatePass(ctx context.Context, addr ledger.Address) error

	// Transfer moves amount from one account to another, failing with
	// ErrInsufficientFunds when from cannot cover it.
	Transfer(ctx context.Context, from, to ledger.Address, amount uint64) error
}

// TxFn is the body of a ledger transaction.
type TxFn func(ctx context.Context, tx Tx) error

// Ledger is the record store the engines run against.
type Ledger interface {
	// Update runs fn as one all-or-nothing transaction. Updates are
	// serialized with respect to each other.
	Update(ctx context.Context, fn TxFn) error

	Collection(ctx context.Context, addr ledger.Address) (types.PassCollection, error)
	Pass(ctx context.Context, addr ledger.Address) (types.UserPass, error)
	// Collections lists collections ordered by created_at then address.
	// A nil organizer lists every collection.
	Collections(ctx context.Context, organizer *ledger.Address) ([]types.PassCollection, error)
	PassesByOwner(ctx context.Context, owner ledger.Address) ([]types.UserPass, error)
}

// AccountStore exposes balances outside of a purchase.
type AccountStore interface {
	Balance(ctx context.Context, addr ledger.Address) (uint64, error)
	// Deposit credits amount and returns the new balance.
	Deposit(ctx context.Context, addr ledger.Address, amount uint64) (uint64, error)
}
