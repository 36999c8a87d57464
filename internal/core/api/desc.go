package api

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/aepbridge/internal/types"
	"github.com/solatis/aepbridge/internal/wire"
)

// gRPC names of the bridge service. Requests and responses are
// google.protobuf.Struct, so no generated code is involved.
const (
	ServiceName      = "aepbridge.v1.Bridge"
	InvokeFullMethod = "/" + ServiceName + "/Invoke"
)

// Request and response field names.
const (
	FieldModule = "module"
	FieldMethod = "method"
	FieldArgs   = "args"
	FieldResult = "result"
	FieldCallID = "callId"
)

// BridgeServer is the server API for the bridge service.
type BridgeServer interface {
	Invoke(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func invokeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BridgeServer).Invoke(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: InvokeFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BridgeServer).Invoke(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc describes the bridge service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BridgeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Invoke", Handler: invokeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "aepbridge/v1/bridge.proto",
}

// RegisterBridgeServer registers srv with s.
func RegisterBridgeServer(s grpc.ServiceRegistrar, srv BridgeServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// NewRequest builds an Invoke request.
func NewRequest(module, method string, args ...wire.Value) *structpb.Struct {
	list := &structpb.ListValue{Values: make([]*structpb.Value, len(args))}
	for i, a := range args {
		list.Values[i] = wire.ToProto(a)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldModule: structpb.NewStringValue(module),
		FieldMethod: structpb.NewStringValue(method),
		FieldArgs:   structpb.NewListValue(list),
	}}
}

// BridgeClient calls a remote bridge service.
type BridgeClient struct {
	cc grpc.ClientConnInterface
}

// NewBridgeClient wraps cc.
func NewBridgeClient(cc grpc.ClientConnInterface) *BridgeClient {
	return &BridgeClient{cc: cc}
}

// Invoke sends a raw request.
func (c *BridgeClient) Invoke(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, InvokeFullMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Call invokes module.method with native Go arguments and returns the result.
func (c *BridgeClient) Call(ctx context.Context, module, method string, args ...any) (wire.Value, error) {
	vals := make([]wire.Value, len(args))
	for i, a := range args {
		v, ok := wire.FromAny(a)
		if !ok {
			return wire.Null(), fmt.Errorf("argument %d: %w", i, types.ErrConversionFailed)
		}
		vals[i] = v
	}
	resp, err := c.Invoke(ctx, NewRequest(module, method, vals...))
	if err != nil {
		return wire.Null(), err
	}
	return wire.FromProto(resp.GetFields()[FieldResult]), nil
}
