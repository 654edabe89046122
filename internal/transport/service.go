package transport

// #region imports
import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/catalog"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/engine"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/features"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
)

// #endregion

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "amas.v1.EngineService"

// #region messages

// Messages travel as google.protobuf.Struct; these are their JSON shapes.

type userRequest struct {
	UserID string `json:"user_id"`
}

type processEventRequest struct {
	UserID string            `json:"user_id"`
	Event  features.RawEvent `json:"event"`
}

type batchProcessRequest struct {
	UserID string              `json:"user_id"`
	Events []features.RawEvent `json:"events"`
}

type batchProcessResponse struct {
	Responses []engine.Response `json:"responses"`
}

type phaseResponse struct {
	Phase state.Phase `json:"phase"`
}

type strategyResponse struct {
	Strategy catalog.StrategyParams `json:"strategy"`
}

type stateResponse struct {
	State state.UserState `json:"state"`
}

// #endregion

// #region service-desc

// EngineServer is the server API for the engine service.
type EngineServer interface {
	ProcessEvent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	BatchProcess(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetColdStartPhase(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCurrentStrategy(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetState(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResetUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ProcessEvent", Handler: unary("ProcessEvent", EngineServer.ProcessEvent)},
		{MethodName: "BatchProcess", Handler: unary("BatchProcess", EngineServer.BatchProcess)},
		{MethodName: "GetColdStartPhase", Handler: unary("GetColdStartPhase", EngineServer.GetColdStartPhase)},
		{MethodName: "GetCurrentStrategy", Handler: unary("GetCurrentStrategy", EngineServer.GetCurrentStrategy)},
		{MethodName: "GetState", Handler: unary("GetState", EngineServer.GetState)},
		{MethodName: "ResetUser", Handler: unary("ResetUser", EngineServer.ResetUser)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "amas/v1/engine.proto",
}

// RegisterEngineServer attaches srv to s.
func RegisterEngineServer(s grpc.ServiceRegistrar, srv EngineServer) {
	s.RegisterService(&serviceDesc, srv)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unary(name string, call func(EngineServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EngineServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(EngineServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// #endregion

// #region struct-codec

// encode converts a JSON-tagged value to a Struct.
func encode(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return out, nil
}

// decode fills a JSON-tagged value from a Struct.
func decode(s *structpb.Struct, v any) error {
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}

// #endregion
