// Package v1 holds the astromatch.v1 gRPC contract described in synastry.proto.
// Messages are google.protobuf.Struct, so the service descriptor is maintained
// by hand instead of by protoc-gen-go-grpc.
package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "astromatch.v1.Synastry"

const (
	Synastry_BuildChart_FullMethodName            = "/astromatch.v1.Synastry/BuildChart"
	Synastry_GetCompatibility_FullMethodName      = "/astromatch.v1.Synastry/GetCompatibility"
	Synastry_GetQuickCompatibility_FullMethodName = "/astromatch.v1.Synastry/GetQuickCompatibility"
)

// SynastryClient is the client API for the Synastry service.
type SynastryClient interface {
	BuildChart(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetCompatibility(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetQuickCompatibility(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type synastryClient struct {
	cc grpc.ClientConnInterface
}

func NewSynastryClient(cc grpc.ClientConnInterface) SynastryClient {
	return &synastryClient{cc}
}

func (c *synastryClient) BuildChart(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, Synastry_BuildChart_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *synastryClient) GetCompatibility(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, Synastry_GetCompatibility_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *synastryClient) GetQuickCompatibility(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, Synastry_GetQuickCompatibility_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// SynastryServer is the server API for the Synastry service.
// Implementations must embed UnimplementedSynastryServer.
type SynastryServer interface {
	BuildChart(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCompatibility(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetQuickCompatibility(context.Context, *structpb.Struct) (*structpb.Struct, error)
	mustEmbedUnimplementedSynastryServer()
}

type UnimplementedSynastryServer struct{}

func (UnimplementedSynastryServer) BuildChart(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method BuildChart not implemented")
}

func (UnimplementedSynastryServer) GetCompatibility(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetCompatibility not implemented")
}

func (UnimplementedSynastryServer) GetQuickCompatibility(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetQuickCompatibility not implemented")
}

func (UnimplementedSynastryServer) mustEmbedUnimplementedSynastryServer() {}

func RegisterSynastryServer(s grpc.ServiceRegistrar, srv SynastryServer) {
	s.RegisterService(&Synastry_ServiceDesc, srv)
}

func unaryHandler(
	fullMethod string,
	call func(SynastryServer, context.Context, *structpb.Struct) (*structpb.Struct, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SynastryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SynastryServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Synastry_ServiceDesc is the grpc.ServiceDesc for the Synastry service.
var Synastry_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SynastryServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "BuildChart",
			Handler:    unaryHandler(Synastry_BuildChart_FullMethodName, SynastryServer.BuildChart),
		},
		{
			MethodName: "GetCompatibility",
			Handler:    unaryHandler(Synastry_GetCompatibility_FullMethodName, SynastryServer.GetCompatibility),
		},
		{
			MethodName: "GetQuickCompatibility",
			Handler:    unaryHandler(Synastry_GetQuickCompatibility_FullMethodName, SynastryServer.GetQuickCompatibility),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/v1/synastry.proto",
}
