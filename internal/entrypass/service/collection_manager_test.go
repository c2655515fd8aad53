package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrypass/server/internal/entrypass/service"
	"github.com/entrypass/server/internal/entrypass/types"
	"github.com/entrypass/server/internal/events"
	"github.com/entrypass/server/internal/ledger"
)

func TestCreate_DerivesAddressAndStartsEmpty(t *testing.T) {
	eachBackend(t, func(t *testing.T, h *harness) {
		org := keypair(t, 1)
		c := h.create(t, org, "summer-fest", 100, 10, 3600)

		assert.Equal(t, ledger.CollectionAddress(org.Address, "summer-fest"), c.Address)
		assert.Equal(t, org.Address, c.Organizer)
		assert.Equal(t, uint64(0), c.CurrentSupply)
		assert.Equal(t, int64(1000), c.CreatedAt)

		got, err := h.queries.CollectionByName(context.Background(), org.Address, "summer-fest")
		require.NoError(t, err)
		assert.Equal(t, c, got)

		created := h.events.OfType(events.CollectionCreated)
		require.Len(t, created, 1)
		assert.Equal(t, c.Address.String(), created[0].Key)
	})
}

func TestCreate_Duplicate(t *testing.T) {
	eachBackend(t, func(t *testing.T, h *harness) {
		org := keypair(t, 1)
		h.create(t, org, "gala", 100, 10, 0)

		req := types.CreateCollectionRequest{Organizer: org.Address, Name: "gala", Price: 5, MaxSupply: 1}
		_, err := h.collections.Create(context.Background(), req, sign(t, org, ledger.OpCreateCollection, req))
		require.ErrorIs(t, err, service.ErrCollectionExists)
		assert.Equal(t, service.CategoryDuplicate, service.CategoryOf(err))

		// The original record is untouched.
		got, err := h.queries.CollectionByName(context.Background(), org.Address, "gala")
		require.NoError(t, err)
		assert.Equal(t, uint64(100), got.Price)
		assert.Len(t, h.events.OfType(events.CollectionCreated), 1)
	})
}

func TestCreate_SameNameDifferentOrganizers(t *testing.T) {
	eachBackend(t, func(t *testing.T, h *harness) {
		a := h.create(t, keypair(t, 1), "gala", 100, 10, 0)
		b := h.create(t, keypair(t, 2), "gala", 100, 10, 0)
		assert.NotEqual(t, a.Address, b.Address)
	})
}

func TestCreate_Validation(t *testing.T) {
	h := newHarness(t, "memory")
	org := keypair(t, 1)

	tests := []struct {
		name string
		req  types.CreateCollectionRequest
		want error
	}{
		{"empty name", types.CreateCollectionRequest{Name: ""}, service.ErrInvalidName},
		{"name too long", types.CreateCollectionRequest{Name: strings.Repeat("n", 51)}, service.ErrInvalidName},
		{"description too long", types.CreateCollectionRequest{Name: "ok", Description: strings.Repeat("d", 201)}, service.ErrInvalidDescription},
		{"price out of range", types.CreateCollectionRequest{Name: "ok", Price: types.MaxAmount + 1}, service.ErrAmountOutOfRange},
		{"supply out of range", types.CreateCollectionRequest{Name: "ok", MaxSupply: types.MaxAmount + 1}, service.ErrAmountOutOfRange},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.Organizer = org.Address
			_, err := h.collections.Create(context.Background(), tc.req, sign(t, org, ledger.OpCreateCollection, tc.req))
			require.ErrorIs(t, err, tc.want)
			assert.Equal(t, service.CategoryValidation, service.CategoryOf(err))
		})
	}

	t.Run("bounds are inclusive", func(t *testing.T) {
		req := types.CreateCollectionRequest{
			Organizer:   org.Address,
			Name:        strings.Repeat("n", 50),
			Description: strings.Repeat("d", 200),
			Price:       types.MaxAmount,
			MaxSupply:   types.MaxAmount,
		}
		_, err := h.collections.Create(context.Background(), req, sign(t, org, ledger.OpCreateCollection, req))
		require.NoError(t, err)
	})

	t.Run("name length counts bytes", func(t *testing.T) {
		// 17 three-byte runes: 17 characters, 51 bytes.
		req := types.CreateCollectionRequest{Organizer: org.Address, Name: strings.Repeat("€", 17)}
		_, err := h.collections.Create(context.Background(), req, sign(t, org, ledger.OpCreateCollection, req))
		require.ErrorIs(t, err, service.ErrInvalidName)
	})
}

func TestCreate_RequiresOrganizerSignature(t *testing.T) {
	h := newHarness(t, "memory")
	org, mallory := keypair(t, 1), keypair(t, 9)

	req := types.CreateCollectionRequest{Organizer: org.Address, Name: "gala", MaxSupply: 1}

	_, err := h.collections.Create(context.Background(), req, nil)
	require.ErrorIs(t, err, service.ErrUnauthorized)
	require.ErrorIs(t, err, ledger.ErrMissingSignature)

	_, err = h.collections.Create(context.Background(), req, sign(t, mallory, ledger.OpCreateCollection, req))
	require.ErrorIs(t, err, service.ErrUnauthorized)
	assert.Equal(t, service.CategoryAuthorization, service.CategoryOf(err))

	// A signature over a different body does not carry over.
	other := req
	other.Price = 1
	_, err = h.collections.Create(context.Background(), req, sign(t, org, ledger.OpCreateCollection, other))
	require.ErrorIs(t, err, service.ErrUnauthorized)

	all, err := h.queries.Collections(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, h.events.Events())
}
