package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/entrypass/server/internal/entrypass/store"
	"github.com/entrypass/server/internal/entrypass/types"
	"github.com/entrypass/server/internal/events"
	"github.com/entrypass/server/internal/ledger"
)

// IssuanceEngine sells passes. It is the only writer of current_supply.
type IssuanceEngine struct {
	ledger store.Ledger
	clock  ledger.Clock
	pub    events.Publisher
	logger *zap.Logger
}

func NewIssuanceEngine(l store.Ledger, clock ledger.Clock, pub events.Publisher, logger *zap.Logger) *IssuanceEngine {
	return &IssuanceEngine{ledger: l, clock: clock, pub: pub, logger: orNop(logger)}
}

// PassPurchased is the payload of a pass.purchased event.
type PassPurchased struct {
	Pass          types.UserPass `json:"pass"`
	Organizer     ledger.Address `json:"organizer"`
	Price         uint64         `json:"price"`
	CurrentSupply uint64         `json:"current_supply"`
	MaxSupply     uint64         `json:"max_supply"`
}

// Purchase moves the collection price from buyer to organizer, records
// the buyer's pass and takes one unit of supply, all in one transaction.
// sig must be the buyer's signature over req.
func (e *IssuanceEngine) Purchase(ctx context.Context, req types.PurchasePassRequest, sig []byte) (types.UserPass, error) {
	if req.Buyer.IsZero() || req.Collection.IsZero() {
		return types.UserPass{}, ErrMissingAddress
	}
	if err := authorize(req.Buyer, ledger.OpPurchasePass, req, sig); err != nil {
		return types.UserPass{}, err
	}

	var (
		pass types.UserPass
		col  types.PassCollection
	)
	err := e.ledger.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := tx.Collection(ctx, req.Collection)
		if err != nil {
			return collectionErr(err)
		}
		if req.Organizer != c.Organizer {
			return ErrPayeeMismatch
		}
		if c.SoldOut() {
			return ErrMaxSupplyReached
		}

		if err := tx.Transfer(ctx, req.Buyer, c.Organizer, c.Price); err != nil {
			switch {
			case errors.Is(err, store.ErrInsufficientFunds):
				return fmt.Errorf("%w: price %d", ErrInsufficientFunds, c.Price)
			case errors.Is(err, store.ErrBalanceOverflow):
				return fmt.Errorf("%w: organizer balance would overflow", ErrPaymentFailed)
			}
			return err
		}

		now := e.clock.Now().Unix()
		p := types.UserPass{
			Address:     ledger.PassAddress(c.Address, req.Buyer),
			Owner:       req.Buyer,
			Collection:  c.Address,
			PurchasedAt: now,
			ExpiresAt:   c.ExpiryFor(now),
			Status:      types.PassActive,
		}
		if err := tx.InsertPass(ctx, p); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrPassExists
			}
			return err
		}

		supply, err := tx.IncrementSupply(ctx, c.Address)
		if err != nil {
			if errors.Is(err, store.ErrSupplyExhausted) {
				return ErrMaxSupplyReached
			}
			return err
		}
		c.CurrentSupply = supply

		pass, col = p, c
		return nil
	})
	if err != nil {
		e.logger.Debug("purchase rejected",
			zap.Stringer("buyer", req.Buyer),
			zap.Stringer("collection", req.Collection),
			zap.Error(err),
		)
		return types.UserPass{}, err
	}

	e.logger.Info("pass purchased",
		zap.Stringer("pass", pass.Address),
		zap.Stringer("collection", col.Address),
		zap.Stringer("buyer", pass.Owner),
		zap.Uint64("supply", col.CurrentSupply),
		zap.Int64("expires_at", pass.ExpiresAt),
	)
	publish(ctx, e.pub, e.logger, events.PassPurchased, pass.Address, PassPurchased{
		Pass:          pass,
		Organizer:     col.Organizer,
		Price:         col.Price,
		CurrentSupply: col.CurrentSupply,
		MaxSupply:     col.MaxSupply,
	})
	return pass, nil
}
