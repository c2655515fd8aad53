package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrypass/server/internal/entrypass/service"
	"github.com/entrypass/server/internal/entrypass/store/memory"
	"github.com/entrypass/server/internal/entrypass/types"
	"github.com/entrypass/server/internal/ledger"
)

func TestAccounts_DepositDisabled(t *testing.T) {
	accts := service.NewAccounts(memory.NewLedger(), false, nil)

	_, err := accts.Deposit(context.Background(), keypair(t, 1).Address, 10)
	require.ErrorIs(t, err, service.ErrDepositsDisabled)
	assert.Equal(t, service.CategoryAuthorization, service.CategoryOf(err))
}

func TestAccounts_DepositAndBalance(t *testing.T) {
	l := memory.NewLedger()
	accts := service.NewAccounts(l, true, nil)
	ctx := context.Background()
	addr := keypair(t, 1).Address

	acct, err := accts.Balance(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, types.Account{Address: addr, Balance: 0}, acct)

	acct, err = accts.Deposit(ctx, addr, 40)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), acct.Balance)

	acct, err = accts.Deposit(ctx, addr, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), acct.Balance)
}

func TestAccounts_DepositValidation(t *testing.T) {
	accts := service.NewAccounts(memory.NewLedger(), true, nil)
	ctx := context.Background()
	addr := keypair(t, 1).Address

	_, err := accts.Deposit(ctx, ledger.Address{}, 1)
	require.ErrorIs(t, err, service.ErrMissingAddress)

	_, err = accts.Deposit(ctx, addr, 0)
	require.ErrorIs(t, err, service.ErrAmountOutOfRange)

	_, err = accts.Deposit(ctx, addr, types.MaxAmount+1)
	require.ErrorIs(t, err, service.ErrAmountOutOfRange)

	_, err = accts.Deposit(ctx, addr, types.MaxAmount)
	require.NoError(t, err)
	_, err = accts.Deposit(ctx, addr, 1)
	require.ErrorIs(t, err, service.ErrAmountOutOfRange)
}
