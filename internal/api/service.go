package api

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "nodekeeper.NodeKeeper"

const (
	HandleMethod = "/" + ServiceName + "/Handle"
	PingMethod   = "/" + ServiceName + "/Ping"
)

// NodeKeeperServer is implemented by the server transport.
type NodeKeeperServer interface {
	Handle(context.Context, *CommandRequest) (*ViewResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

func handleHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CommandRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NodeKeeperServer).Handle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HandleMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NodeKeeperServer).Handle(ctx, req.(*CommandRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func pingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NodeKeeperServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PingMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NodeKeeperServer).Ping(ctx, req.(*PingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc describes the NodeKeeper service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*NodeKeeperServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Handle", Handler: handleHandler},
		{MethodName: "Ping", Handler: pingHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nodekeeper",
}

// RegisterNodeKeeperServer registers srv on s.
func RegisterNodeKeeperServer(s grpc.ServiceRegistrar, srv NodeKeeperServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// NodeKeeperClient is the client side of the service.
type NodeKeeperClient interface {
	Handle(ctx context.Context, in *CommandRequest, opts ...grpc.CallOption) (*ViewResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
}

type nodeKeeperClient struct {
	cc grpc.ClientConnInterface
}

// NewNodeKeeperClient returns a client that sends every call with the JSON
// codec.
func NewNodeKeeperClient(cc grpc.ClientConnInterface) NodeKeeperClient {
	return &nodeKeeperClient{cc: cc}
}

func (c *nodeKeeperClient) Handle(ctx context.Context, in *CommandRequest, opts ...grpc.CallOption) (*ViewResponse, error) {
	out := new(ViewResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, HandleMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *nodeKeeperClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	out := new(PingResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, PingMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
