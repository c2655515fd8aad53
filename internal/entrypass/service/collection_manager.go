package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/entrypass/server/internal/entrypass/store"
	"github.com/entrypass/server/internal/entrypass/types"
	"github.com/entrypass/server/internal/events"
	"github.com/entrypass/server/internal/ledger"
)

type CollectionManager struct {
	ledger store.Ledger
	clock  ledger.Clock
	pub    events.Publisher
	logger *zap.Logger
}

func NewCollectionManager(l store.Ledger, clock ledger.Clock, pub events.Publisher, logger *zap.Logger) *CollectionManager {
	return &CollectionManager{ledger: l, clock: clock, pub: pub, logger: orNop(logger)}
}

// Create registers a new collection at the address derived from the
// organizer and name. sig must be the organizer's signature over req.
func (m *CollectionManager) Create(ctx context.Context, req types.CreateCollectionRequest, sig []byte) (types.PassCollection, error) {
	if err := validateCreate(req); err != nil {
		return types.PassCollection{}, err
	}
	if err := authorize(req.Organizer, ledger.OpCreateCollection, req, sig); err != nil {
		return types.PassCollection{}, err
	}

	c := types.PassCollection{
		Address:        ledger.CollectionAddress(req.Organizer, req.Name),
		Organizer:      req.Organizer,
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		MaxSupply:      req.MaxSupply,
		CurrentSupply:  0,
		ValidityPeriod: req.ValidityPeriod,
	}

	err := m.ledger.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		c.CreatedAt = m.clock.Now().Unix()
		if err := tx.InsertCollection(ctx, c); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrCollectionExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		m.logger.Debug("create collection rejected",
			zap.Stringer("organizer", req.Organizer),
			zap.String("name", req.Name),
			zap.Error(err),
		)
		return types.PassCollection{}, err
	}

	m.logger.Info("collection created",
		zap.Stringer("collection", c.Address),
		zap.Stringer("organizer", c.Organizer),
		zap.Uint64("max_supply", c.MaxSupply),
		zap.Uint64("price", c.Price),
	)
	publish(ctx, m.pub, m.logger, events.CollectionCreated, c.Address, c)
	return c, nil
}

func validateCreate(req types.CreateCollectionRequest) error {
	if req.Organizer.IsZero() {
		return ErrMissingAddress
	}
	if n := len(req.Name); n == 0 || n > types.MaxNameBytes {
		return ErrInvalidName
	}
	if len(req.Description) > types.MaxDescriptionBytes {
		return ErrInvalidDescription
	}
	if req.Price > types.MaxAmount || req.MaxSupply > types.MaxAmount {
		return ErrAmountOutOfRange
	}
	return nil
}
