package types_test

import (
	"bytes"
	"testing"

	"github.com/entrypass/server/internal/entrypass/types"
	"github.com/entrypass/server/internal/ledger"
)

func addr(b byte) ledger.Address {
	var a ledger.Address
	copy(a[:], bytes.Repeat([]byte{b}, len(a)))
	return a
}

// Records on the wire use integer keys like every request type.
func TestCBOR_IntegerKeys(t *testing.T) {
	tests := []struct {
		name string
		v    any
		keys int
	}{
		{"collection", types.PassCollection{Address: addr(1), Organizer: addr(2), Name: "gala", MaxSupply: 5}, 9},
		{"pass", types.UserPass{Address: addr(3), Owner: addr(4), Collection: addr(1), Status: types.PassActive}, 6},
		{"account", types.Account{Address: addr(4), Balance: 7}, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := ledger.Marshal(tc.v)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var m map[uint64]any
			if err := ledger.Unmarshal(data, &m); err != nil {
				t.Fatalf("decode as integer-keyed map: %v", err)
			}
			if len(m) != tc.keys {
				t.Errorf("expected %d keys, got %d", tc.keys, len(m))
			}
			for k := uint64(1); k <= uint64(tc.keys); k++ {
				if _, ok := m[k]; !ok {
					t.Errorf("missing key %d", k)
				}
			}
		})
	}
}

func TestCBOR_RecordRoundTrip(t *testing.T) {
	c := types.PassCollection{
		Address: addr(1), Organizer: addr(2), Name: "gala", Description: "d",
		Price: 100, MaxSupply: 5, CurrentSupply: 1, ValidityPeriod: 3600, CreatedAt: 1000,
	}
	p := types.UserPass{
		Address: addr(3), Owner: addr(4), Collection: addr(1),
		PurchasedAt: 1000, ExpiresAt: types.NeverExpires, Status: types.PassRevoked,
	}

	data, err := ledger.Marshal(c)
	if err != nil {
		t.Fatalf("marshal collection: %v", err)
	}
	var gotC types.PassCollection
	if err := ledger.Unmarshal(data, &gotC); err != nil {
		t.Fatalf("unmarshal collection: %v", err)
	}
	if gotC != c {
		t.Errorf("collection mismatch: got %+v want %+v", gotC, c)
	}

	data, err = ledger.Marshal(p)
	if err != nil {
		t.Fatalf("marshal pass: %v", err)
	}
	var gotP types.UserPass
	if err := ledger.Unmarshal(data, &gotP); err != nil {
		t.Fatalf("unmarshal pass: %v", err)
	}
	if gotP != p {
		t.Errorf("pass mismatch: got %+v want %+v", gotP, p)
	}
}
