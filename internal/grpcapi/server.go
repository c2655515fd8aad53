package grpcapi

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/entrypass/server/internal/entrypass/service"
	"github.com/entrypass/server/internal/entrypass/types"
)

type Dependencies struct {
	Logger *zap.Logger

	Collections  *service.CollectionManager
	Issuance     *service.IssuanceEngine
	Verification *service.VerificationEngine
	Revocation   *service.RevocationEngine
	Queries      *service.Queries
}

type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger *zap.Logger

	collections  *service.CollectionManager
	issuance     *service.IssuanceEngine
	verification *service.VerificationEngine
	revocation   *service.RevocationEngine
	queries      *service.Queries
}

var _ EntryPassServer = (*Server)(nil)

func NewServer(d Dependencies) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		health:       health.NewServer(),
		logger:       logger,
		collections:  d.Collections,
		issuance:     d.Issuance,
		verification: d.Verification,
		revocation:   d.Revocation,
		queries:      d.Queries,
	}
	s.grpc = grpc.NewServer(grpc.ChainUnaryInterceptor(
		recoverInterceptor(logger),
		loggingInterceptor(logger),
	))
	s.grpc.RegisterService(&ServiceDesc, s)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

func (s *Server) Serve(lis net.Listener) error { return s.grpc.Serve(lis) }

// GracefulStop marks the service as not serving and waits for in-flight
// calls to finish.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func (s *Server) Stop() { s.grpc.Stop() }

func (s *Server) CreateCollection(ctx context.Context, in *CreateCollectionRequest) (*types.PassCollection, error) {
	c, err := s.collections.Create(ctx, in.Request, in.Signature)
	if err != nil {
		return nil, s.statusError("create_collection", err)
	}
	return &c, nil
}

func (s *Server) PurchasePass(ctx context.Context, in *PurchasePassRequest) (*types.UserPass, error) {
	p, err := s.issuance.Purchase(ctx, in.Request, in.Signature)
	if err != nil {
		return nil, s.statusError("purchase_pass", err)
	}
	return &p, nil
}

func (s *Server) VerifyPass(ctx context.Context, in *types.VerifyPassRequest) (*types.Verification, error) {
	v, err := s.verification.Verify(ctx, *in)
	if err != nil {
		return nil, s.statusError("verify_pass", err)
	}
	return &v, nil
}

func (s *Server) RevokePass(ctx context.Context, in *RevokePassRequest) (*types.UserPass, error) {
	p, err := s.revocation.Revoke(ctx, in.Request, in.Signature)
	if err != nil {
		return nil, s.statusError("revoke_pass", err)
	}
	return &p, nil
}

func (s *Server) GetCollection(ctx context.Context, in *GetRequest) (*types.PassCollection, error) {
	c, err := s.queries.Collection(ctx, in.Address)
	if err != nil {
		return nil, s.statusError("get_collection", err)
	}
	return &c, nil
}

func (s *Server) GetPass(ctx context.Context, in *GetRequest) (*types.UserPass, error) {
	p, err := s.queries.Pass(ctx, in.Address)
	if err != nil {
		return nil, s.statusError("get_pass", err)
	}
	return &p, nil
}

// codeFor maps an error category to the gRPC status code clients see.
func codeFor(c service.Category) codes.Code {
	switch c {
	case service.CategoryValidation:
		return codes.InvalidArgument
	case service.CategoryAuthorization:
		return codes.PermissionDenied
	case service.CategoryCapacity:
		return codes.ResourceExhausted
	case service.CategoryDuplicate:
		return codes.AlreadyExists
	case service.CategoryTransfer:
		return codes.FailedPrecondition
	case service.CategoryNotFound:
		return codes.NotFound
	default:
		return codes.Internal
	}
}

func (s *Server) statusError(op string, err error) error {
	code := codeFor(service.CategoryOf(err))
	if code == codes.Internal {
		s.logger.Error(op+" failed", zap.Error(err))
		return status.Error(codes.Internal, "unexpected server error")
	}
	return status.Error(code, err.Error())
}

func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("latency", time.Since(start)),
		}
		switch code {
		case codes.OK:
			logger.Info("rpc", fields...)
		case codes.Internal, codes.Unknown:
			logger.Error("rpc", fields...)
		default:
			logger.Warn("rpc", fields...)
		}
		return resp, err
	}
}

func recoverInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("rpc panic", zap.String("method", info.FullMethod), zap.Any("panic", r), zap.Stack("stack"))
				err = status.Error(codes.Internal, "unexpected server error")
			}
		}()
		return handler(ctx, req)
	}
}
