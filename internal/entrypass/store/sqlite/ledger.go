package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dbpkg "github.com/entrypass/server/internal/db"
	"github.com/entrypass/server/internal/entrypass/store"
	"github.com/entrypass/server/internal/entrypass/types"
	"github.com/entrypass/server/internal/ledger"
)

// Ledger is the SQLite-backed store.Ledger. All writes go through the
// single-writer Worker; reads use the pool directly.
type Ledger struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewLedger(db *sql.DB, writer *dbpkg.Worker) *Ledger {
	return &Ledger{db: db, writer: writer}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (l *Ledger) Update(ctx context.Context, fn store.TxFn) error {
	return l.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &sqlTx{tx: tx})
	})
}

func (l *Ledger) Collection(ctx context.Context, addr ledger.Address) (types.PassCollection, error) {
	return getCollection(ctx, l.db, addr)
}

func (l *Ledger) Pass(ctx context.Context, addr ledger.Address) (types.UserPass, error) {
	return getPass(ctx, l.db, addr)
}

func (l *Ledger) Collections(ctx context.Context, organizer *ledger.Address) ([]types.PassCollection, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if organizer == nil {
		rows, err = l.db.QueryContext(ctx, `
SELECT `+collectionColumns+`
FROM pass_collections
ORDER BY created_at_s, address;
`)
	} else {
		rows, err = l.db.QueryContext(ctx, `
SELECT `+collectionColumns+`
FROM pass_collections
WHERE organizer = ?
ORDER BY created_at_s, address;
`, organizer.String())
	}
	if err != nil {
		return nil, fmt.Errorf("Collections query: %w", err)
	}
	defer rows.Close()

	out := make([]types.PassCollection, 0)
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("Collections scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (l *Ledger) PassesByOwner(ctx context.Context, owner ledger.Address) ([]types.UserPass, error) {
	rows, err := l.db.QueryContext(ctx, `
SELECT `+passColumns+`
FROM user_passes
WHERE owner = ?
ORDER BY purchased_at_s, address;
`, owner.String())
	if err != nil {
		return nil, fmt.Errorf("PassesByOwner query: %w", err)
	}
	defer rows.Close()

	out := make([]types.UserPass, 0)
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, fmt.Errorf("PassesByOwner scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ── Accounts ─────────────────────────────────────────────────────────────────

func (l *Ledger) Balance(ctx context.Context, addr ledger.Address) (uint64, error) {
	return getBalance(ctx, l.db, addr)
}

func (l *Ledger) Deposit(ctx context.Context, addr ledger.Address, amount uint64) (uint64, error) {
	var bal uint64
	err := l.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		cur, err := getBalance(ctx, tx, addr)
		if err != nil {
			return err
		}
		if amount > types.MaxAmount-cur {
			return store.ErrBalanceOverflow
		}
		bal = cur + amount
		return setBalance(ctx, tx, addr, bal)
	})
	return bal, err
}

// ── Transaction ──────────────────────────────────────────────────────────────

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) Collection(ctx context.Context, addr ledger.Address) (types.PassCollection, error) {
	return getCollection(ctx, t.tx, addr)
}

func (t *sqlTx) InsertCollection(ctx context.Context, c types.PassCollection) error {
	if c.Price > types.MaxAmount || c.MaxSupply > types.MaxAmount || c.CurrentSupply > c.MaxSupply {
		return fmt.Errorf("InsertCollection %s: amounts out of range", c.Address)
	}
	res, err := t.tx.ExecContext(ctx, `
INSERT INTO pass_collections(
  address, organizer, name, description,
  price, max_supply, current_supply,
  validity_period_s, created_at_s
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT DO NOTHING;
`,
		c.Address.String(), c.Organizer.String(), c.Name, c.Description,
		int64(c.Price), int64(c.MaxSupply), int64(c.CurrentSupply),
		c.ValidityPeriod, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("InsertCollection: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (t *sqlTx) IncrementSupply(ctx context.Context, addr ledger.Address) (uint64, error) {
	res, err := t.tx.ExecContext(ctx, `
UPDATE pass_collections
SET current_supply = current_supply + 1
WHERE address = ? AND current_supply < max_supply;
`, addr.String())
	if err != nil {
		return 0, fmt.Errorf("IncrementSupply: %w", err)
	}

	c, err := getCollection(ctx, t.tx, addr)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return c.CurrentSupply, store.ErrSupplyExhausted
	}
	return c.CurrentSupply, nil
}

func (t *sqlTx) Pass(ctx context.Context, addr ledger.Address) (types.UserPass, error) {
	return getPass(ctx, t.tx, addr)
}

func (t *sqlTx) InsertPass(ctx context.Context, p types.UserPass) error {
	if _, err := getCollection(ctx, t.tx, p.Collection); err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx, `
INSERT INTO user_passes(
  address, collection, owner, purchased_at_s, expires_at_s, is_active
) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT DO NOTHING;
`,
		p.Address.String(), p.Collection.String(), p.Owner.String(),
		p.PurchasedAt, p.ExpiresAt, boolInt(p.IsActive()),
	)
	if err != nil {
		return fmt.Errorf("InsertPass: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (t *sqlTx) DeactivatePass(ctx context.Context, addr ledger.Address) error {
	res, err := t.tx.ExecContext(ctx, `
UPDATE user_passes
SET is_active = 0,
    revoked_at_ms = COALESCE(revoked_at_ms, ?)
WHERE address = ?;
`, time.Now().UTC().UnixMilli(), addr.String())
	if err != nil {
		return fmt.Errorf("DeactivatePass: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *sqlTx) Transfer(ctx context.Context, from, to ledger.Address, amount uint64) error {
	fromBal, err := getBalance(ctx, t.tx, from)
	if err != nil {
		return err
	}
	if fromBal < amount {
		return store.ErrInsufficientFunds
	}
	if err := setBalance(ctx, t.tx, from, fromBal-amount); err != nil {
		return err
	}

	// Read after the debit so a self-transfer nets to zero.
	toBal, err := getBalance(ctx, t.tx, to)
	if err != nil {
		return err
	}
	if amount > types.MaxAmount-toBal {
		return store.ErrBalanceOverflow
	}
	return setBalance(ctx, t.tx, to, toBal+amount)
}

// ── Row helpers ──────────────────────────────────────────────────────────────

const collectionColumns = `address, organizer, name, description, price, max_supply,
  current_supply, validity_period_s, created_at_s`

const passColumns = `address, collection, owner, purchased_at_s, expires_at_s, is_active`

type scanner interface {
	Scan(dest ...any) error
}

func getCollection(ctx context.Context, q queryer, addr ledger.Address) (types.PassCollection, error) {
	row := q.QueryRowContext(ctx, `
SELECT `+collectionColumns+`
FROM pass_collections
WHERE address = ?;
`, addr.String())
	c, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.PassCollection{}, store.ErrNotFound
	}
	if err != nil {
		return types.PassCollection{}, fmt.Errorf("Collection %s: %w", addr.Short(), err)
	}
	return c, nil
}

func scanCollection(s scanner) (types.PassCollection, error) {
	var (
		c                         types.PassCollection
		addr, organizer           string
		price, maxSupply, current int64
	)
	if err := s.Scan(
		&addr, &organizer, &c.Name, &c.Description,
		&price, &maxSupply, &current,
		&c.ValidityPeriod, &c.CreatedAt,
	); err != nil {
		return types.PassCollection{}, err
	}
	var err error
	if c.Address, err = ledger.ParseAddress(addr); err != nil {
		return types.PassCollection{}, err
	}
	if c.Organizer, err = ledger.ParseAddress(organizer); err != nil {
		return types.PassCollection{}, err
	}
	c.Price = uint64(price)
	c.MaxSupply = uint64(maxSupply)
	c.CurrentSupply = uint64(current)
	return c, nil
}

func getPass(ctx context.Context, q queryer, addr ledger.Address) (types.UserPass, error) {
	row := q.QueryRowContext(ctx, `
SELECT `+passColumns+`
FROM user_passes
WHERE address = ?;
`, addr.String())
	p, err := scanPass(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.UserPass{}, store.ErrNotFound
	}
	if err != nil {
		return types.UserPass{}, fmt.Errorf("Pass %s: %w", addr.Short(), err)
	}
	return p, nil
}

func scanPass(s scanner) (types.UserPass, error) {
	var (
		p                       types.UserPass
		addr, collection, owner string
		active                  int
	)
	if err := s.Scan(&addr, &collection, &owner, &p.PurchasedAt, &p.ExpiresAt, &active); err != nil {
		return types.UserPass{}, err
	}
	var err error
	if p.Address, err = ledger.ParseAddress(addr); err != nil {
		return types.UserPass{}, err
	}
	if p.Collection, err = ledger.ParseAddress(collection); err != nil {
		return types.UserPass{}, err
	}
	if p.Owner, err = ledger.ParseAddress(owner); err != nil {
		return types.UserPass{}, err
	}
	p.Status = types.PassRevoked
	if active == 1 {
		p.Status = types.PassActive
	}
	return p, nil
}

func getBalance(ctx context.Context, q queryer, addr ledger.Address) (uint64, error) {
	var bal int64
	err := q.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE address = ?;`, addr.String()).Scan(&bal)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("Balance %s: %w", addr.Short(), err)
	}
	return uint64(bal), nil
}

// setBalance must be called inside a transaction.
func setBalance(ctx context.Context, tx *sql.Tx, addr ledger.Address, bal uint64) error {
	if _, err := tx.ExecContext(ctx, `
INSERT INTO accounts(address, balance, updated_at_ms)
VALUES (?, ?, ?)
ON CONFLICT(address) DO UPDATE SET
  balance = excluded.balance,
  updated_at_ms = excluded.updated_at_ms;
`, addr.String(), int64(bal), time.Now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("set balance %s: %w", addr.Short(), err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
