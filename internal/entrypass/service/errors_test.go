package service_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/entrypass/server/internal/entrypass/service"
	"github.com/entrypass/server/internal/ledger"
)

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		err  error
		want service.Category
	}{
		{service.ErrInvalidName, service.CategoryValidation},
		{ledger.ErrInvalidAddress, service.CategoryValidation},
		{fmt.Errorf("wrapped: %w", service.ErrAmountOutOfRange), service.CategoryValidation},
		{service.ErrUnauthorized, service.CategoryAuthorization},
		{service.ErrPayeeMismatch, service.CategoryAuthorization},
		{service.ErrNotOrganizer, service.CategoryAuthorization},
		{service.ErrMaxSupplyReached, service.CategoryCapacity},
		{service.ErrCollectionExists, service.CategoryDuplicate},
		{service.ErrPassExists, service.CategoryDuplicate},
		{fmt.Errorf("%w: price 5", service.ErrInsufficientFunds), service.CategoryTransfer},
		{fmt.Errorf("%w: organizer balance would overflow", service.ErrPaymentFailed), service.CategoryTransfer},
		{service.ErrCollectionNotFound, service.CategoryNotFound},
		{service.ErrPassNotFound, service.CategoryNotFound},
		{errors.New("disk on fire"), service.CategoryInternal},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, service.CategoryOf(tc.err), tc.err.Error())
	}
}
