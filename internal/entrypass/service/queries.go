package service

import (
	"context"

	"github.com/entrypass/server/internal/entrypass/store"
	"github.com/entrypass/server/internal/entrypass/types"
	"github.com/entrypass/server/internal/ledger"
)

// Queries is the read side of the ledger.
type Queries struct {
	ledger store.Ledger
}

func NewQueries(l store.Ledger) *Queries {
	return &Queries{ledger: l}
}

func (q *Queries) Collection(ctx context.Context, addr ledger.Address) (types.PassCollection, error) {
	c, err := q.ledger.Collection(ctx, addr)
	if err != nil {
		return types.PassCollection{}, collectionErr(err)
	}
	return c, nil
}

// CollectionByName looks a collection up through its derived address.
func (q *Queries) CollectionByName(ctx context.Context, organizer ledger.Address, name string) (types.PassCollection, error) {
	return q.Collection(ctx, ledger.CollectionAddress(organizer, name))
}

// Collections lists every collection, or only organizer's when non-nil.
func (q *Queries) Collections(ctx context.Context, organizer *ledger.Address) ([]types.PassCollection, error) {
	return q.ledger.Collections(ctx, organizer)
}

func (q *Queries) Pass(ctx context.Context, addr ledger.Address) (types.UserPass, error) {
	p, err := q.ledger.Pass(ctx, addr)
	if err != nil {
		return types.UserPass{}, passErr(err)
	}
	return p, nil
}

// PassFor returns owner's pass in collection.
func (q *Queries) PassFor(ctx context.Context, collection, owner ledger.Address) (types.UserPass, error) {
	return q.Pass(ctx, ledger.PassAddress(collection, owner))
}

func (q *Queries) PassesByOwner(ctx context.Context, owner ledger.Address) ([]types.UserPass, error) {
	return q.ledger.PassesByOwner(ctx, owner)
}
