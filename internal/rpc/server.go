package rpc

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/rfvision/internal/logging"
	"github.com/signalsfoundry/rfvision/internal/observability"
)

// NewServer returns a gRPC server with the calculator registered behind the
// request-id, tracing and metrics interceptors. collector may be nil.
func NewServer(calc CalculatorServer, log logging.Logger, collector *observability.Collector, opts ...grpc.ServerOption) *grpc.Server {
	base := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			RequestIDUnaryServerInterceptor(log),
			TracingUnaryServerInterceptor(),
			collector.UnaryServerInterceptor(),
		),
	}
	srv := grpc.NewServer(append(base, opts...)...)
	RegisterCalculatorServer(srv, calc)
	return srv
}
