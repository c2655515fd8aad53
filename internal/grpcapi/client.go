package grpcapi

import (
	"context"

	"google.golang.org/grpc"

	"github.com/entrypass/server/internal/entrypass/types"
	"github.com/entrypass/server/internal/ledger"
)

// Client is a typed client for the entrypass.v1.EntryPass service. Every
// call is sent with the cbor content-subtype.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, fullMethod(method), in, out, opts...)
}

// CreateCollection signs req with kp and submits it.
func (c *Client) CreateCollection(ctx context.Context, kp ledger.Keypair, req types.CreateCollectionRequest, opts ...grpc.CallOption) (types.PassCollection, error) {
	sig, err := kp.Sign(ledger.OpCreateCollection, req)
	if err != nil {
		return types.PassCollection{}, err
	}
	var out types.PassCollection
	err = c.invoke(ctx, "CreateCollection", &CreateCollectionRequest{Request: req, Signature: sig}, &out, opts)
	return out, err
}

// PurchasePass signs req with kp and submits it.
func (c *Client) PurchasePass(ctx context.Context, kp ledger.Keypair, req types.PurchasePassRequest, opts ...grpc.CallOption) (types.UserPass, error) {
	sig, err := kp.Sign(ledger.OpPurchasePass, req)
	if err != nil {
		return types.UserPass{}, err
	}
	var out types.UserPass
	err = c.invoke(ctx, "PurchasePass", &PurchasePassRequest{Request: req, Signature: sig}, &out, opts)
	return out, err
}

// RevokePass signs req with kp and submits it.
func (c *Client) RevokePass(ctx context.Context, kp ledger.Keypair, req types.RevokePassRequest, opts ...grpc.CallOption) (types.UserPass, error) {
	sig, err := kp.Sign(ledger.OpRevokePass, req)
	if err != nil {
		return types.UserPass{}, err
	}
	var out types.UserPass
	err = c.invoke(ctx, "RevokePass", &RevokePassRequest{Request: req, Signature: sig}, &out, opts)
	return out, err
}

func (c *Client) VerifyPass(ctx context.Context, req types.VerifyPassRequest, opts ...grpc.CallOption) (types.Verification, error) {
	var out types.Verification
	err := c.invoke(ctx, "VerifyPass", &req, &out, opts)
	return out, err
}

func (c *Client) GetCollection(ctx context.Context, addr ledger.Address, opts ...grpc.CallOption) (types.PassCollection, error) {
	var out types.PassCollection
	err := c.invoke(ctx, "GetCollection", &GetRequest{Address: addr}, &out, opts)
	return out, err
}

func (c *Client) GetPass(ctx context.Context, addr ledger.Address, opts ...grpc.CallOption) (types.UserPass, error) {
	var out types.UserPass
	err := c.invoke(ctx, "GetPass", &GetRequest{Address: addr}, &out, opts)
	return out, err
}
