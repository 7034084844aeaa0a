package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/gacha-planner/internal/sim"
)

// Planner service. Requests and responses are google.protobuf.Struct values
// holding the same JSON documents the HTTP API accepts and returns.
const (
	PlannerServiceName = "gachaplan.v1.Planner"

	Planner_Simulate_FullMethodName = "/gachaplan.v1.Planner/Simulate"
	Planner_Optimize_FullMethodName = "/gachaplan.v1.Planner/Optimize"
	Planner_Estimate_FullMethodName = "/gachaplan.v1.Planner/Estimate"
)

// PlannerServer is the server API for the Planner service.
type PlannerServer interface {
	Simulate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Optimize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Estimate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterPlannerServer registers srv on s.
func RegisterPlannerServer(s grpc.ServiceRegistrar, srv PlannerServer) {
	s.RegisterService(&Planner_ServiceDesc, srv)
}

func unaryHandler(method string, call func(PlannerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PlannerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PlannerServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Planner_ServiceDesc is the grpc.ServiceDesc for the Planner service.
var Planner_ServiceDesc = grpc.ServiceDesc{
	ServiceName: PlannerServiceName,
	HandlerType: (*PlannerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Simulate", Handler: unaryHandler(Planner_Simulate_FullMethodName, PlannerServer.Simulate)},
		{MethodName: "Optimize", Handler: unaryHandler(Planner_Optimize_FullMethodName, PlannerServer.Optimize)},
		{MethodName: "Estimate", Handler: unaryHandler(Planner_Estimate_FullMethodName, PlannerServer.Estimate)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gachaplan/v1/planner.proto",
}

// PlannerClient is the client API for the Planner service.
type PlannerClient struct {
	cc grpc.ClientConnInterface
}

func NewPlannerClient(cc grpc.ClientConnInterface) *PlannerClient {
	return &PlannerClient{cc: cc}
}

func (c *PlannerClient) Simulate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, Planner_Simulate_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PlannerClient) Optimize(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, Planner_Optimize_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PlannerClient) Estimate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, Planner_Estimate_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// plannerServer adapts Service to PlannerServer.
type plannerServer struct {
	svc *Service
}

func (p plannerServer) Simulate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req PlanRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	resp, err := p.svc.Simulate(ctx, req)
	if err != nil {
		return nil, grpcErr(err)
	}
	return toStruct(resp)
}

func (p plannerServer) Optimize(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req OptimizeRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	resp, err := p.svc.Optimize(ctx, req)
	if err != nil {
		return nil, grpcErr(err)
	}
	return toStruct(resp)
}

func (p plannerServer) Estimate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req EstimateRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	resp, err := p.svc.Estimate(ctx, req)
	if err != nil {
		return nil, grpcErr(err)
	}
	return toStruct(resp)
}

func fromStruct(in *structpb.Struct, v any) error {
	if err := FromStruct(in, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	return nil
}

// ToStruct encodes v into a Struct through its JSON form.
func ToStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}

// FromStruct decodes a Struct into v through its JSON form.
func FromStruct(in *structpb.Struct, v any) error {
	b, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func toStruct(v any) (*structpb.Struct, error) {
	out, err := ToStruct(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func grpcErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case IsInvalid(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, sim.ErrCanceled), errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

func logUnary(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		started := time.Now()
		resp, err := handler(ctx, req)
		log.Info("grpc request",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(started),
		)
		return resp, err
	}
}

// NewGRPCServer builds a gRPC server exposing the Planner and health services.
func NewGRPCServer(svc *Service, log *slog.Logger) (*grpc.Server, *health.Server) {
	if log == nil {
		log = slog.Default()
	}
	gs := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(logUnary(log)),
	)
	RegisterPlannerServer(gs, plannerServer{svc: svc})
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(PlannerServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return gs, hs
}
