package control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "buildtv.v1.ControlService"

	// SetPatternMethod is the full method name of SetPattern.
	SetPatternMethod = "/" + ServiceName + "/SetPattern"
	// GetStateMethod is the full method name of GetState.
	GetStateMethod = "/" + ServiceName + "/GetState"
)

// ControlServer is the server API of the control service.
type ControlServer interface {
	SetPattern(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error)
	GetState(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// ServiceDesc describes the control service for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Service descriptors are package-level by gRPC convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SetPattern",
			Handler:    setPatternHandler,
		},
		{
			MethodName: "GetState",
			Handler:    getStateHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "buildtv/v1/control.proto",
}

// Register attaches srv to a gRPC server.
func Register(registrar grpc.ServiceRegistrar, srv ControlServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

func setPatternHandler(
	srv any,
	ctx context.Context, //nolint:revive // Signature is fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(ControlServer).SetPattern(ctx, in) //nolint:forcetypeassert // Guaranteed by HandlerType.
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SetPatternMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).SetPattern(ctx, req.(*wrapperspb.StringValue)) //nolint:forcetypeassert // Decoded above.
	}

	return interceptor(ctx, in, info, handler)
}

func getStateHandler(
	srv any,
	ctx context.Context, //nolint:revive // Signature is fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(ControlServer).GetState(ctx, in) //nolint:forcetypeassert // Guaranteed by HandlerType.
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetStateMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).GetState(ctx, req.(*emptypb.Empty)) //nolint:forcetypeassert // Decoded above.
	}

	return interceptor(ctx, in, info, handler)
}
