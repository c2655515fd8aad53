package grpcapi

import (
	"context"

	"google.golang.org/grpc"

	"github.com/entrypass/server/internal/entrypass/types"
	"github.com/entrypass/server/internal/ledger"
)

const ServiceName = "entrypass.v1.EntryPass"

// Signed request messages pair a body with the signer's ed25519
// signature over its canonical encoding.

type CreateCollectionRequest struct {
	Request   types.CreateCollectionRequest `cbor:"1,keyasint"`
	Signature []byte                        `cbor:"2,keyasint"`
}

type PurchasePassRequest struct {
	Request   types.PurchasePassRequest `cbor:"1,keyasint"`
	Signature []byte                    `cbor:"2,keyasint"`
}

type RevokePassRequest struct {
	Request   types.RevokePassRequest `cbor:"1,keyasint"`
	Signature []byte                  `cbor:"2,keyasint"`
}

// GetRequest looks up a collection or pass by address.
type GetRequest struct {
	Address ledger.Address `cbor:"1,keyasint"`
}

// EntryPassServer is the server API for the entrypass.v1.EntryPass
// service.
type EntryPassServer interface {
	CreateCollection(context.Context, *CreateCollectionRequest) (*types.PassCollection, error)
	PurchasePass(context.Context, *PurchasePassRequest) (*types.UserPass, error)
	VerifyPass(context.Context, *types.VerifyPassRequest) (*types.Verification, error)
	RevokePass(context.Context, *RevokePassRequest) (*types.UserPass, error)
	GetCollection(context.Context, *GetRequest) (*types.PassCollection, error)
	GetPass(context.Context, *GetRequest) (*types.UserPass, error)
}

// ServiceDesc is registered by hand in place of protoc output; the
// messages above travel through the cbor codec.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EntryPassServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateCollection", EntryPassServer.CreateCollection),
		unary("PurchasePass", EntryPassServer.PurchasePass),
		unary("VerifyPass", EntryPassServer.VerifyPass),
		unary("RevokePass", EntryPassServer.RevokePass),
		unary("GetCollection", EntryPassServer.GetCollection),
		unary("GetPass", EntryPassServer.GetPass),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "entrypass/v1/entrypass.cbor",
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

func unary[Req, Resp any](name string, call func(EntryPassServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(EntryPassServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(EntryPassServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
