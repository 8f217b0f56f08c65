// Package rpc serves the RF calculator over gRPC. Requests and responses are
// google.protobuf.Struct messages, so clients in any language can call the
// service with a stock protobuf runtime and no generated stubs.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "rfvision.v1.Calculator"

// CalculatorServer is the server API for the calculator service.
type CalculatorServer interface {
	PathLoss(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Friis(context.Context, *structpb.Struct) (*structpb.Struct, error)
	NoisePower(context.Context, *structpb.Struct) (*structpb.Struct, error)
	LinkBudget(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TextToBinary(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(CalculatorServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CalculatorServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(CalculatorServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// CalculatorServiceDesc describes the calculator for grpc.ServiceRegistrar.
var CalculatorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CalculatorServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("PathLoss", CalculatorServer.PathLoss),
		unaryHandler("Friis", CalculatorServer.Friis),
		unaryHandler("NoisePower", CalculatorServer.NoisePower),
		unaryHandler("LinkBudget", CalculatorServer.LinkBudget),
		unaryHandler("TextToBinary", CalculatorServer.TextToBinary),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rfvision/v1/calculator.proto",
}

// RegisterCalculatorServer registers srv on s.
func RegisterCalculatorServer(s grpc.ServiceRegistrar, srv CalculatorServer) {
	s.RegisterService(&CalculatorServiceDesc, srv)
}

// CalculatorClient is the client API for the calculator service.
type CalculatorClient struct {
	cc grpc.ClientConnInterface
}

func NewCalculatorClient(cc grpc.ClientConnInterface) *CalculatorClient {
	return &CalculatorClient{cc: cc}
}

func (c *CalculatorClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CalculatorClient) PathLoss(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "PathLoss", in, opts)
}

func (c *CalculatorClient) Friis(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Friis", in, opts)
}

func (c *CalculatorClient) NoisePower(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "NoisePower", in, opts)
}

func (c *CalculatorClient) LinkBudget(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "LinkBudget", in, opts)
}

func (c *CalculatorClient) TextToBinary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "TextToBinary", in, opts)
}
