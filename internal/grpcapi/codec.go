package grpcapi

import (
	"fmt"

	"google.golang.org/grpc/encoding"

	"github.com/entrypass/server/internal/ledger"
)

// CodecName is the gRPC content-subtype for CBOR messages
// (application/grpc+cbor).
const CodecName = "cbor"

func init() {
	encoding.RegisterCodec(cborCodec{})
}

// cborCodec carries plain Go structs over gRPC using the ledger's
// canonical CBOR encoding, so no generated protobuf types are needed.
type cborCodec struct{}

func (cborCodec) Name() string { return CodecName }

func (cborCodec) Marshal(v any) ([]byte, error) {
	data, err := ledger.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cbor marshal %T: %w", v, err)
	}
	return data, nil
}

func (cborCodec) Unmarshal(data []byte, v any) error {
	if err := ledger.Unmarshal(data, v); err != nil {
		return fmt.Errorf("cbor unmarshal %T: %w", v, err)
	}
	return nil
}
