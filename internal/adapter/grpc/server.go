// Package grpc serves the standard health checking protocol for orchestrators.
package grpc

import (
	"fmt"
	"net"

	"github.com/jrybusiness/stylerental-backend/internal/adapter/grpc/middleware"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name reported through grpc.health.v1.Health.
const ServiceName = "stylerental.listing"

type Server struct {
	server *grpc.Server
	health *health.Server
	logger *logger.Logger
}

func NewServer(log *logger.Logger) *Server {
	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(middleware.LoggingInterceptor(log)),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	reflection.Register(server)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	log.Info("gRPC server configured", "services", []string{"grpc.health.v1.Health", "reflection"})
	return &Server{server: server, health: hs, logger: log}
}

// SetServing flips the reported health of the whole server and of ServiceName.
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Serve blocks until the listener fails or Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC server listening", "addr", lis.Addr().String())
	if err := s.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Stop marks the server as not serving and drains in-flight calls.
func (s *Server) Stop() {
	s.logger.Info("Calling gRPC server's GracefulStop...")
	s.health.Shutdown()
	s.server.GracefulStop()
	s.logger.Info("gRPC server GracefulStop completed.")
}
