package service

import (
	"errors"
	"fmt"

	"github.com/entrypass/server/internal/entrypass/store"
	"github.com/entrypass/server/internal/ledger"
)

var (
	ErrInvalidName        = errors.New("name must be 1-50 bytes")
	ErrInvalidDescription = errors.New("description must be at most 200 bytes")
	ErrAmountOutOfRange   = errors.New("amount out of range")
	ErrMissingAddress     = errors.New("address is required")

	ErrUnauthorized       = errors.New("unauthorized")
	ErrPayeeMismatch      = errors.New("payee is not the collection organizer")
	ErrNotOrganizer       = errors.New("signer is not the collection organizer")
	ErrCollectionMismatch = errors.New("pass does not belong to collection")

	ErrMaxSupplyReached = errors.New("max supply reached")

	ErrCollectionExists = errors.New("collection already exists")
	ErrPassExists       = errors.New("pass already exists")

	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrPaymentFailed     = errors.New("payment could not be transferred")

	ErrCollectionNotFound = errors.New("collection not found")
	ErrPassNotFound       = errors.New("pass not found")

	ErrDepositsDisabled = errors.New("deposits are disabled")
)

// Category groups errors by how a caller should react to them.
type Category string

const (
	CategoryValidation    Category = "validation"
	CategoryAuthorization Category = "authorization"
	CategoryCapacity      Category = "capacity"
	CategoryDuplicate     Category = "duplicate"
	CategoryTransfer      Category = "transfer"
	CategoryNotFound      Category = "not_found"
	CategoryInternal      Category = "internal"
)

// CategoryOf classifies err. Anything unrecognised is internal.
func CategoryOf(err error) Category {
	switch {
	case errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrInvalidDescription),
		errors.Is(err, ErrAmountOutOfRange),
		errors.Is(err, ErrMissingAddress),
		errors.Is(err, ledger.ErrInvalidAddress):
		return CategoryValidation
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrPayeeMismatch),
		errors.Is(err, ErrNotOrganizer),
		errors.Is(err, ErrCollectionMismatch),
		errors.Is(err, ErrDepositsDisabled):
		return CategoryAuthorization
	case errors.Is(err, ErrMaxSupplyReached):
		return CategoryCapacity
	case errors.Is(err, ErrCollectionExists),
		errors.Is(err, ErrPassExists):
		return CategoryDuplicate
	case errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrPaymentFailed):
		return CategoryTransfer
	case errors.Is(err, ErrCollectionNotFound),
		errors.Is(err, ErrPassNotFound):
		return CategoryNotFound
	default:
		return CategoryInternal
	}
}

// authorize checks that signer signed op over body.
func authorize(signer ledger.Address, op ledger.Op, body any, sig []byte) error {
	if err := ledger.VerifySignature(signer, op, body, sig); err != nil {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return nil
}

func collectionErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrCollectionNotFound
	}
	return err
}

func passErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrPassNotFound
	}
	return err
}
