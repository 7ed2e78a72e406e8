package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/emmett/affect/internal/logging"
)

// Server wraps the gRPC server and services
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	monitor    *MonitorService
	log        logrus.FieldLogger
	addr       string
	stopOnce   sync.Once
}

// Config holds server configuration
type Config struct {
	Host   string
	Port   int
	Logger logrus.FieldLogger
}

// NewServer creates a gRPC server publishing the results of source
func NewServer(cfg Config, source ResultSource) (*Server, error) {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if source == nil {
		return nil, fmt.Errorf("result source is required")
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}

	s := &Server{
		health:  health.NewServer(),
		monitor: NewMonitorService(source, log),
		log:     log,
		addr:    net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port)),
	}
	s.grpcServer = grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.logUnary),
		grpc.ChainStreamInterceptor(s.logStream),
	)

	// Register services
	RegisterMonitorServer(s.grpcServer, s.monitor)
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus(MonitorServiceName, healthpb.HealthCheckResponse_SERVING)

	return s, nil
}

// Start listens on the configured address and serves until Stop
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(lis)
}

// Serve accepts connections on lis until Stop
func (s *Server) Serve(lis net.Listener) error {
	s.log.WithField("addr", lis.Addr().String()).Info("gRPC server listening")
	return s.grpcServer.Serve(lis)
}

// Stop ends open Watch streams and gracefully stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.health.Shutdown()
		s.monitor.Close()
		s.grpcServer.GracefulStop()
	})
}

func (s *Server) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	entry := s.log.WithField("method", info.FullMethod)
	if err != nil {
		entry.WithError(err).Debug("rpc failed")
	} else {
		entry.Debug("rpc served")
	}
	return resp, err
}

func (s *Server) logStream(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	entry := s.log.WithField("method", info.FullMethod)
	entry.Debug("stream opened")
	err := handler(srv, ss)
	entry.WithError(err).Debug("stream closed")
	return err
}
