package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrypass/server/internal/entrypass/service"
)

func TestQueries_ListsByOrganizerAndOwner(t *testing.T) {
	eachBackend(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		org1, org2, alice := keypair(t, 1), keypair(t, 2), keypair(t, 3)

		a := h.create(t, org1, "a", 0, 5, 0)
		h.clock.SetUnix(2000)
		b := h.create(t, org2, "b", 0, 5, 0)
		h.clock.SetUnix(3000)
		c := h.create(t, org1, "c", 0, 5, 0)

		all, err := h.queries.Collections(ctx, nil)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, a.Address, all[0].Address)
		assert.Equal(t, b.Address, all[1].Address)
		assert.Equal(t, c.Address, all[2].Address)

		mine, err := h.queries.Collections(ctx, &org1.Address)
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, "a", mine[0].Name)
		assert.Equal(t, "c", mine[1].Name)

		_, err = h.purchase(t, alice, a)
		require.NoError(t, err)
		_, err = h.purchase(t, alice, c)
		require.NoError(t, err)

		passes, err := h.queries.PassesByOwner(ctx, alice.Address)
		require.NoError(t, err)
		assert.Len(t, passes, 2)

		none, err := h.queries.PassesByOwner(ctx, org2.Address)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestQueries_NotFound(t *testing.T) {
	h := newHarness(t, "memory")
	ctx := context.Background()

	_, err := h.queries.CollectionByName(ctx, keypair(t, 1).Address, "missing")
	require.ErrorIs(t, err, service.ErrCollectionNotFound)

	_, err = h.queries.PassFor(ctx, keypair(t, 1).Address, keypair(t, 2).Address)
	require.ErrorIs(t, err, service.ErrPassNotFound)
}
