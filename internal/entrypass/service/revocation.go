package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/entrypass/server/internal/entrypass/store"
	"github.com/entrypass/server/internal/entrypass/types"
	"github.com/entrypass/server/internal/events"
	"github.com/entrypass/server/internal/ledger"
)

type RevocationEngine struct {
	ledger store.Ledger
	pub    events.Publisher
	logger *zap.Logger
}

func NewRevocationEngine(l store.Ledger, pub events.Publisher, logger *zap.Logger) *RevocationEngine {
	return &RevocationEngine{ledger: l, pub: pub, logger: orNop(logger)}
}

// Revoke deactivates a pass on behalf of its collection's organizer.
// Revoking a revoked pass succeeds without a change. Supply is never
// given back.
func (e *RevocationEngine) Revoke(ctx context.Context, req types.RevokePassRequest, sig []byte) (types.UserPass, error) {
	if req.Organizer.IsZero() || req.Pass.IsZero() || req.Collection.IsZero() {
		return types.UserPass{}, ErrMissingAddress
	}
	if err := authorize(req.Organizer, ledger.OpRevokePass, req, sig); err != nil {
		return types.UserPass{}, err
	}

	var (
		out     types.UserPass
		changed bool
	)
	err := e.ledger.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		p, err := tx.Pass(ctx, req.Pass)
		if err != nil {
			return passErr(err)
		}
		if p.Collection != req.Collection {
			return ErrCollectionMismatch
		}
		c, err := tx.Collection(ctx, req.Collection)
		if err != nil {
			return collectionErr(err)
		}
		if c.Organizer != req.Organizer {
			return ErrNotOrganizer
		}

		out, changed = p.Revoked()
		if !changed {
			return nil
		}
		return tx.DeactivatePass(ctx, p.Address)
	})
	if err != nil {
		e.logger.Debug("revoke rejected",
			zap.Stringer("pass", req.Pass),
			zap.Stringer("organizer", req.Organizer),
			zap.Error(err),
		)
		return types.UserPass{}, err
	}

	if changed {
		e.logger.Info("pass revoked",
			zap.Stringer("pass", out.Address),
			zap.Stringer("collection", out.Collection),
		)
		publish(ctx, e.pub, e.logger, events.PassRevoked, out.Address, out)
	}
	return out, nil
}
