package service_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/entrypass/server/internal/db"
	"github.com/entrypass/server/internal/entrypass/service"
	"github.com/entrypass/server/internal/entrypass/store"
	"github.com/entrypass/server/internal/entrypass/store/memory"
	sqlitestore "github.com/entrypass/server/internal/entrypass/store/sqlite"
	"github.com/entrypass/server/internal/entrypass/types"
	"github.com/entrypass/server/internal/events"
	"github.com/entrypass/server/internal/ledger"
)

type ledgerStore interface {
	store.Ledger
	store.AccountStore
}

// harness wires every engine against one backend with a manual clock and
// an event recorder.
type harness struct {
	ledger ledgerStore
	vlog   store.VerificationLog
	clock  *ledger.ManualClock
	events *events.Recorder

	collections  *service.CollectionManager
	issuance     *service.IssuanceEngine
	verification *service.VerificationEngine
	revocation   *service.RevocationEngine
	queries      *service.Queries
}

func newHarness(t *testing.T, backend string) *harness {
	t.Helper()

	h := &harness{
		clock:  ledger.NewManualClockAt(1000),
		events: events.NewRecorder(),
	}

	switch backend {
	case "memory":
		h.ledger = memory.NewLedger()
		h.vlog = memory.NewVerificationLog()
	case "sqlite":
		name := "svc_" + strings.ReplaceAll(t.Name(), "/", "_")
		conn, err := db.OpenMemory(context.Background(), name)
		require.NoError(t, err)
		w := db.NewWorker(conn)
		t.Cleanup(func() {
			w.Close()
			conn.Close()
		})
		h.ledger = sqlitestore.NewLedger(conn, w)
		h.vlog = sqlitestore.NewVerificationLog(conn, w)
	default:
		t.Fatalf("unknown backend %q", backend)
	}

	logger := zaptest.NewLogger(t)
	h.collections = service.NewCollectionManager(h.ledger, h.clock, h.events, logger)
	h.issuance = service.NewIssuanceEngine(h.ledger, h.clock, h.events, logger)
	h.verification = service.NewVerificationEngine(h.ledger, h.vlog, h.clock, logger)
	h.revocation = service.NewRevocationEngine(h.ledger, h.events, logger)
	h.queries = service.NewQueries(h.ledger)
	return h
}

// eachBackend runs fn once against the memory ledger and once against
// SQLite.
func eachBackend(t *testing.T, fn func(t *testing.T, h *harness)) {
	for _, backend := range []string{"memory", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			fn(t, newHarness(t, backend))
		})
	}
}

func keypair(t *testing.T, b byte) ledger.Keypair {
	t.Helper()
	kp, err := ledger.KeypairFromSeed(bytes.Repeat([]byte{b}, 32))
	require.NoError(t, err)
	return kp
}

func sign(t *testing.T, kp ledger.Keypair, op ledger.Op, body any) []byte {
	t.Helper()
	sig, err := kp.Sign(op, body)
	require.NoError(t, err)
	return sig
}

func (h *harness) fund(t *testing.T, addr ledger.Address, amount uint64) {
	t.Helper()
	_, err := h.ledger.Deposit(context.Background(), addr, amount)
	require.NoError(t, err)
}

func (h *harness) balance(t *testing.T, addr ledger.Address) uint64 {
	t.Helper()
	bal, err := h.ledger.Balance(context.Background(), addr)
	require.NoError(t, err)
	return bal
}

func (h *harness) create(t *testing.T, org ledger.Keypair, name string, price, maxSupply uint64, validity int64) types.PassCollection {
	t.Helper()
	req := types.CreateCollectionRequest{
		Organizer:      org.Address,
		Name:           name,
		Description:    "test collection",
		Price:          price,
		MaxSupply:      maxSupply,
		ValidityPeriod: validity,
	}
	c, err := h.collections.Create(context.Background(), req, sign(t, org, ledger.OpCreateCollection, req))
	require.NoError(t, err)
	return c
}

func (h *harness) purchase(t *testing.T, buyer ledger.Keypair, c types.PassCollection) (types.UserPass, error) {
	t.Helper()
	req := types.PurchasePassRequest{
		Buyer:      buyer.Address,
		Organizer:  c.Organizer,
		Collection: c.Address,
	}
	return h.issuance.Purchase(context.Background(), req, sign(t, buyer, ledger.OpPurchasePass, req))
}

func (h *harness) revoke(t *testing.T, org ledger.Keypair, p types.UserPass) (types.UserPass, error) {
	t.Helper()
	req := types.RevokePassRequest{
		Organizer:  org.Address,
		Pass:       p.Address,
		Collection: p.Collection,
	}
	return h.revocation.Revoke(context.Background(), req, sign(t, org, ledger.OpRevokePass, req))
}

func (h *harness) verifyAt(t *testing.T, p types.UserPass, owner ledger.Address, at int64) types.Verification {
	t.Helper()
	v, err := h.verification.Verify(context.Background(), types.VerifyPassRequest{
		Pass:  p.Address,
		Owner: owner,
		At:    &at,
	})
	require.NoError(t, err)
	return v
}

func (h *harness) supply(t *testing.T, c types.PassCollection) uint64 {
	t.Helper()
	got, err := h.queries.Collection(context.Background(), c.Address)
	require.NoError(t, err)
	return got.CurrentSupply
}
