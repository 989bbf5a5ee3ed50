package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	health "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const defaultPort = 50051

type Option func(*settings)

type settings struct {
	port       int
	logger     *zap.Logger
	reflection bool
	logCalls   bool
	guard      bool
	adminToken string
	extra      []grpc.UnaryServerInterceptor
}

// WithPort sets the TCP port. 0 picks a free one.
func WithPort(port int) Option {
	return func(s *settings) { s.port = port }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

func WithReflection(enabled bool) Option {
	return func(s *settings) { s.reflection = enabled }
}

// WithLogging logs every call, refused ones included.
func WithLogging(enabled bool) Option {
	return func(s *settings) { s.logCalls = enabled }
}

// WithAdminAuth guards every method outside the health and reflection
// services with AdminAuthInterceptor.
func WithAdminAuth(token string) Option {
	return func(s *settings) {
		s.guard = true
		s.adminToken = token
	}
}

// WithUnaryInterceptors appends interceptors that run after logging and
// admin auth.
func WithUnaryInterceptors(interceptors ...grpc.UnaryServerInterceptor) Option {
	return func(s *settings) { s.extra = append(s.extra, interceptors...) }
}

// chain orders the interceptors: logging sees every call, auth runs before
// any handler.
func (s *settings) chain() []grpc.UnaryServerInterceptor {
	var out []grpc.UnaryServerInterceptor
	if s.logCalls {
		out = append(out, LoggingInterceptor(s.logger.Named("calls")))
	}
	if s.guard {
		out = append(out, AdminAuthInterceptor(s.adminToken, s.logger.Named("auth")))
	}
	return append(out, s.extra...)
}

// Server is the admin API listener with the standard health service.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	lis        net.Listener
	logger     *zap.Logger
}

// New binds the listener and builds the server; nothing is served until Start.
func New(opts ...Option) (*Server, error) {
	s := &settings{port: defaultPort}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.port < 0 || s.port > 65535 {
		return nil, fmt.Errorf("invalid port %d: must be between 0 and 65535", s.port)
	}

	var serverOpts []grpc.ServerOption
	if chain := s.chain(); len(chain) > 0 {
		serverOpts = append(serverOpts, grpc.ChainUnaryInterceptor(chain...))
	}
	grpcServer := grpc.NewServer(serverOpts...)
	if s.reflection {
		reflection.Register(grpcServer)
	}

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}

	return &Server{
		grpcServer: grpcServer,
		health:     hs,
		lis:        lis,
		logger:     s.logger.Named("grpc-server"),
	}, nil
}

// Register adds a service and reports it SERVING under serviceName.
func (s *Server) Register(serviceName string, register func(grpc.ServiceRegistrar)) {
	register(s.grpcServer)
	if serviceName != "" {
		s.health.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	}
	s.logger.Info("registered service", zap.String("service", serviceName))
}

// Start serves in the background and returns immediately.
func (s *Server) Start() {
	addr := s.lis.Addr().String()
	s.logger.Info("gRPC server started", zap.String("addr", addr))
	go func() {
		if err := s.grpcServer.Serve(s.lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			s.logger.Error("gRPC server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
}

// Shutdown reports every service NOT_SERVING, lets in-flight calls finish,
// and stops hard when ctx ends first.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("gRPC server shutting down")
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("gRPC server stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("in-flight calls cut off at shutdown deadline")
		s.grpcServer.Stop()
		return ctx.Err()
	}
}

// Addr returns the bound address, useful with port 0.
func (s *Server) Addr() net.Addr {
	return s.lis.Addr()
}
