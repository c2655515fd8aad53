package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/entrypass/server/internal/entrypass/store"
	"github.com/entrypass/server/internal/entrypass/types"
	"github.com/entrypass/server/internal/ledger"
)

// Accounts exposes balances and, when enabled, a development faucet.
type Accounts struct {
	store         store.AccountStore
	allowDeposits bool
	logger        *zap.Logger
}

func NewAccounts(st store.AccountStore, allowDeposits bool, logger *zap.Logger) *Accounts {
	return &Accounts{store: st, allowDeposits: allowDeposits, logger: orNop(logger)}
}

func (a *Accounts) Balance(ctx context.Context, addr ledger.Address) (types.Account, error) {
	bal, err := a.store.Balance(ctx, addr)
	if err != nil {
		return types.Account{}, err
	}
	return types.Account{Address: addr, Balance: bal}, nil
}

func (a *Accounts) Deposit(ctx context.Context, addr ledger.Address, amount uint64) (types.Account, error) {
	if !a.allowDeposits {
		return types.Account{}, ErrDepositsDisabled
	}
	if addr.IsZero() {
		return types.Account{}, ErrMissingAddress
	}
	if amount == 0 || amount > types.MaxAmount {
		return types.Account{}, ErrAmountOutOfRange
	}

	bal, err := a.store.Deposit(ctx, addr, amount)
	if err != nil {
		if errors.Is(err, store.ErrBalanceOverflow) {
			return types.Account{}, ErrAmountOutOfRange
		}
		return types.Account{}, err
	}

	a.logger.Info("deposit",
		zap.Stringer("account", addr),
		zap.Uint64("amount", amount),
		zap.Uint64("balance", bal),
	)
	return types.Account{Address: addr, Balance: bal}, nil
}
