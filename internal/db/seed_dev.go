package db

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"
)

type SeedDevOptions struct {
	// FaucetAccounts are hex addresses credited with FaucetAmount when
	// their balance is below it.
	FaucetAccounts []string
	FaucetAmount   uint64
}

// SeedDev tops up the configured dev accounts so purchases can be tried
// against a fresh database. Never called in prod.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	if len(opt.FaucetAccounts) == 0 || opt.FaucetAmount == 0 {
		return nil
	}
	if opt.FaucetAmount > math.MaxInt64 {
		return fmt.Errorf("seed faucet amount %d out of range", opt.FaucetAmount)
	}
	now := time.Now().UTC().UnixMilli()

	for _, addr := range opt.FaucetAccounts {
		if _, err := db.ExecContext(ctx, `
INSERT INTO accounts(address, balance, updated_at_ms)
VALUES (?, ?, ?)
ON CONFLICT(address) DO UPDATE SET
  balance = MAX(accounts.balance, excluded.balance),
  updated_at_ms = excluded.updated_at_ms;
`, addr, int64(opt.FaucetAmount), now); err != nil {
			return fmt.Errorf("seed account %s: %w", addr, err)
		}
	}

	return nil
}
