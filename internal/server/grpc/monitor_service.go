package grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/emmett/affect/internal/affect"
)

// MonitorServiceName is the fully qualified gRPC service name
const MonitorServiceName = "affect.v1.Monitor"

const watchBuffer = 8

// ResultSource provides the results published by the service
type ResultSource interface {
	Latest() (affect.Result, bool)
	Subscribe(buffer int) (<-chan affect.Result, func())
}

// MonitorServer is the server API of affect.v1.Monitor. Results travel as
// google.protobuf.Struct using the same field names as the JSON output.
type MonitorServer interface {
	Latest(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Watch(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
}

// MonitorService implements MonitorServer on top of a ResultSource
type MonitorService struct {
	source ResultSource
	log    logrus.FieldLogger

	closeOnce sync.Once
	done      chan struct{}
}

// NewMonitorService creates a new monitor service
func NewMonitorService(source ResultSource, log logrus.FieldLogger) *MonitorService {
	return &MonitorService{
		source: source,
		log:    log,
		done:   make(chan struct{}),
	}
}

// Latest returns the most recent estimate
func (m *MonitorService) Latest(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	r, ok := m.source.Latest()
	if !ok {
		return nil, status.Error(codes.NotFound, "no estimate yet")
	}
	return ResultToStruct(r)
}

// Watch streams the latest estimate, if any, followed by every new one
func (m *MonitorService) Watch(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	results, unsubscribe := m.source.Subscribe(watchBuffer)
	defer unsubscribe()

	if r, ok := m.source.Latest(); ok {
		if err := m.send(stream, r); err != nil {
			return err
		}
	}

	for {
		select {
		case <-stream.Context().Done():
			return nil
		case <-m.done:
			return status.Error(codes.Unavailable, "server shutting down")
		case r, ok := <-results:
			if !ok {
				return nil
			}
			if err := m.send(stream, r); err != nil {
				return err
			}
		}
	}
}

func (m *MonitorService) send(stream grpc.ServerStreamingServer[structpb.Struct], r affect.Result) error {
	msg, err := ResultToStruct(r)
	if err != nil {
		return err
	}
	return stream.Send(msg)
}

// Close ends all open Watch streams
func (m *MonitorService) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

// ResultToStruct converts a result to its Struct form
func ResultToStruct(r affect.Result) (*structpb.Struct, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode result: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode result: %v", err)
	}
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode result: %v", err)
	}
	return msg, nil
}

// RegisterMonitorServer registers srv on s
func RegisterMonitorServer(s grpc.ServiceRegistrar, srv MonitorServer) {
	s.RegisterService(&monitorServiceDesc, srv)
}

func latestHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MonitorServer).Latest(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: latestMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MonitorServer).Latest(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(MonitorServer).Watch(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

var (
	latestMethod = fmt.Sprintf("/%s/Latest", MonitorServiceName)
	watchMethod  = fmt.Sprintf("/%s/Watch", MonitorServiceName)
)

var monitorServiceDesc = grpc.ServiceDesc{
	ServiceName: MonitorServiceName,
	HandlerType: (*MonitorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Latest",
			Handler:    latestHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "affect/v1/monitor.proto",
}

// MonitorClient calls affect.v1.Monitor
type MonitorClient struct {
	cc grpc.ClientConnInterface
}

// NewMonitorClient creates a client on cc
func NewMonitorClient(cc grpc.ClientConnInterface) *MonitorClient {
	return &MonitorClient{cc: cc}
}

// Latest fetches the most recent estimate
func (c *MonitorClient) Latest(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, latestMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Watch opens a stream of estimates
func (c *MonitorClient) Watch(ctx context.Context, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &monitorServiceDesc.Streams[0], watchMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
