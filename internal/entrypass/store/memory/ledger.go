package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/entrypass/server/internal/entrypass/store"
	"github.com/entrypass/server/internal/entrypass/types"
	"github.com/entrypass/server/internal/ledger"
)

// Ledger is an in-memory store.Ledger. Update holds the write lock for the
// whole transaction and stages writes in an overlay, so a failed
// transaction leaves the committed maps untouched.
type Ledger struct {
	mu          sync.RWMutex
	collections map[ledger.Address]types.PassCollection
	passes      map[ledger.Address]types.UserPass
	balances    map[ledger.Address]uint64
}

func NewLedger() *Ledger {
	return &Ledger{
		collections: make(map[ledger.Address]types.PassCollection),
		passes:      make(map[ledger.Address]types.UserPass),
		balances:    make(map[ledger.Address]uint64),
	}
}

func (l *Ledger) Update(ctx context.Context, fn store.TxFn) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{
		base:        l,
		collections: make(map[ledger.Address]types.PassCollection),
		passes:      make(map[ledger.Address]types.UserPass),
		balances:    make(map[ledger.Address]uint64),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	for k, v := range tx.collections {
		l.collections[k] = v
	}
	for k, v := range tx.passes {
		l.passes[k] = v
	}
	for k, v := range tx.balances {
		l.balances[k] = v
	}
	return nil
}

func (l *Ledger) Collection(_ context.Context, addr ledger.Address) (types.PassCollection, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.collections[addr]
	if !ok {
		return types.PassCollection{}, store.ErrNotFound
	}
	return c, nil
}

func (l *Ledger) Pass(_ context.Context, addr ledger.Address) (types.UserPass, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.passes[addr]
	if !ok {
		return types.UserPass{}, store.ErrNotFound
	}
	return p, nil
}

func (l *Ledger) Collections(_ context.Context, organizer *ledger.Address) ([]types.PassCollection, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]types.PassCollection, 0, len(l.collections))
	for _, c := range l.collections {
		if organizer != nil && c.Organizer != *organizer {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	return out, nil
}

func (l *Ledger) PassesByOwner(_ context.Context, owner ledger.Address) ([]types.UserPass, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]types.UserPass, 0)
	for _, p := range l.passes {
		if p.Owner == owner {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PurchasedAt != out[j].PurchasedAt {
			return out[i].PurchasedAt < out[j].PurchasedAt
		}
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	return out, nil
}

func (l *Ledger) Balance(_ context.Context, addr ledger.Address) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[addr], nil
}

func (l *Ledger) Deposit(_ context.Context, addr ledger.Address, amount uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bal := l.balances[addr]
	if amount > types.MaxAmount-bal {
		return bal, store.ErrBalanceOverflow
	}
	bal += amount
	l.balances[addr] = bal
	return bal, nil
}

// memTx reads through its overlay to the committed maps. The caller of
// Update holds the write lock for the lifetime of the tx.
type memTx struct {
	base        *Ledger
	collections map[ledger.Address]types.PassCollection
	passes      map[ledger.Address]types.UserPass
	balances    map[ledger.Address]uint64
}

func (t *memTx) Collection(_ context.Context, addr ledger.Address) (types.PassCollection, error) {
	if c, ok := t.collections[addr]; ok {
		return c, nil
	}
	if c, ok := t.base.collections[addr]; ok {
		return c, nil
	}
	return types.PassCollection{}, store.ErrNotFound
}

func (t *memTx) InsertCollection(ctx context.Context, c types.PassCollection) error {
	if _, err := t.Collection(ctx, c.Address); err == nil {
		return store.ErrAlreadyExists
	}
	t.collections[c.Address] = c
	return nil
}

func (t *memTx) IncrementSupply(ctx context.Context, addr ledger.Address) (uint64, error) {
	c, err := t.Collection(ctx, addr)
	if err != nil {
		return 0, err
	}
	if c.CurrentSupply >= c.MaxSupply {
		return c.CurrentSupply, store.ErrSupplyExhausted
	}
	c.CurrentSupply++
	t.collections[addr] = c
	return c.CurrentSupply, nil
}

func (t *memTx) Pass(_ context.Context, addr ledger.Address) (types.UserPass, error) {
	if p, ok := t.passes[addr]; ok {
		return p, nil
	}
	if p, ok := t.base.passes[addr]; ok {
		return p, nil
	}
	return types.UserPass{}, store.ErrNotFound
}

func (t *memTx) InsertPass(ctx context.Context, p types.UserPass) error {
	if _, err := t.Pass(ctx, p.Address); err == nil {
		return store.ErrAlreadyExists
	}
	if _, err := t.Collection(ctx, p.Collection); err != nil {
		return err
	}
	t.passes[p.Address] = p
	return nil
}

func (t *memTx) DeactivatePass(ctx context.Context, addr ledger.Address) error {
	p, err := t.Pass(ctx, addr)
	if err != nil {
		return err
	}
	p, _ = p.Revoked()
	t.passes[addr] = p
	return nil
}

func (t *memTx) balance(addr ledger.Address) uint64 {
	if b, ok := t.balances[addr]; ok {
		return b
	}
	return t.base.balances[addr]
}

func (t *memTx) Transfer(_ context.Context, from, to ledger.Address, amount uint64) error {
	fromBal := t.balance(from)
	if fromBal < amount {
		return store.ErrInsufficientFunds
	}
	t.balances[from] = fromBal - amount

	toBal := t.balance(to)
	if amount > types.MaxAmount-toBal {
		return store.ErrBalanceOverflow
	}
	t.balances[to] = toBal + amount
	return nil
}
