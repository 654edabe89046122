package transport

// #region imports
import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/engine"
)

// #endregion

// #region server

// Server exposes an engine over gRPC.
type Server struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewServer wraps eng. A nil logger discards output.
func NewServer(eng *engine.Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{engine: eng, logger: logger.Named("grpc")}
}

// NewGRPCServer builds a grpc.Server with request logging, the standard
// health service and s registered.
func NewGRPCServer(s *Server, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.MaxRecvMsgSize(4 << 20),
		grpc.ChainUnaryInterceptor(s.logRequests),
	}, opts...)
	gs := grpc.NewServer(opts...)
	RegisterEngineServer(gs, s)

	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(gs, hs)
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return gs
}

func (s *Server) logRequests(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	fields := []zap.Field{
		zap.String("method", info.FullMethod),
		zap.Duration("duration", time.Since(start)),
		zap.String("code", status.Code(err).String()),
	}
	if err != nil {
		s.logger.Warn("rpc failed", append(fields, zap.Error(err))...)
	} else {
		s.logger.Debug("rpc", fields...)
	}
	return resp, err
}

// #endregion

// #region handlers

func (s *Server) ProcessEvent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req processEventRequest
	if err := decodeRequest(in, &req, &req.UserID); err != nil {
		return nil, err
	}
	return encodeResponse(s.engine.ProcessEvent(ctx, req.UserID, req.Event))
}

func (s *Server) BatchProcess(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req batchProcessRequest
	if err := decodeRequest(in, &req, &req.UserID); err != nil {
		return nil, err
	}
	return encodeResponse(batchProcessResponse{Responses: s.engine.BatchProcess(ctx, req.UserID, req.Events)})
}

func (s *Server) GetColdStartPhase(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req userRequest
	if err := decodeRequest(in, &req, &req.UserID); err != nil {
		return nil, err
	}
	phase, err := s.engine.GetColdStartPhase(ctx, req.UserID)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "get phase: %v", err)
	}
	return encodeResponse(phaseResponse{Phase: phase})
}

func (s *Server) GetCurrentStrategy(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req userRequest
	if err := decodeRequest(in, &req, &req.UserID); err != nil {
		return nil, err
	}
	sp, err := s.engine.GetCurrentStrategy(ctx, req.UserID)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "get strategy: %v", err)
	}
	return encodeResponse(strategyResponse{Strategy: sp})
}

func (s *Server) GetState(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req userRequest
	if err := decodeRequest(in, &req, &req.UserID); err != nil {
		return nil, err
	}
	st, err := s.engine.GetState(ctx, req.UserID)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "get state: %v", err)
	}
	return encodeResponse(stateResponse{State: st})
}

func (s *Server) ResetUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req userRequest
	if err := decodeRequest(in, &req, &req.UserID); err != nil {
		return nil, err
	}
	if err := s.engine.ResetUser(ctx, req.UserID); err != nil {
		return nil, status.Errorf(codes.Unavailable, "reset: %v", err)
	}
	return &structpb.Struct{}, nil
}

// #endregion

// #region helpers

func decodeRequest(in *structpb.Struct, req any, userID *string) error {
	if err := decode(in, req); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if *userID == "" {
		return status.Error(codes.InvalidArgument, "user_id is required")
	}
	return nil
}

func encodeResponse(v any) (*structpb.Struct, error) {
	out, err := encode(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// #endregion
