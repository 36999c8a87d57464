// Package server provides gRPC and metrics server lifecycle management.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/solatis/aepbridge/internal/core/api"
	"github.com/solatis/aepbridge/internal/core/auth"
	"github.com/solatis/aepbridge/internal/core/config"
)

// shutdownGrace bounds GracefulStop before the server is stopped hard.
const shutdownGrace = 30 * time.Second

// GRPCServer manages gRPC server lifecycle.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	config *config.BridgeConfig
	logger *slog.Logger
}

// NewGRPCServer creates a gRPC server with the bridge and health services.
// A nil authenticator serves without authentication.
func NewGRPCServer(cfg *config.BridgeConfig, service api.BridgeServer, authenticator *auth.Authenticator, logger *slog.Logger) (*GRPCServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Oversized requests reach the service, which rejects them with a
	// descriptive INVALID_ARGUMENT instead of a transport error.
	opts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(2 * cfg.MaxPayloadSize),
		grpc.MaxConcurrentStreams(uint32(cfg.MaxConnections)),
	}
	if authenticator != nil {
		opts = append(opts, grpc.ChainUnaryInterceptor(authenticator.UnaryInterceptor()))
	}

	server := grpc.NewServer(opts...)
	api.RegisterBridgeServer(server, service)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(api.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &GRPCServer{
		server: server,
		health: healthServer,
		config: cfg,
		logger: logger,
	}, nil
}

// Start binds the configured address and serves until Shutdown.
func (s *GRPCServer) Start(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.config.Addr(), err)
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener.
func (s *GRPCServer) Serve(listener net.Listener) error {
	s.logger.Info("grpc server listening", "addr", listener.Addr().String())
	return s.server.Serve(listener)
}

// Shutdown marks the server NOT_SERVING and stops it gracefully, forcing
// a stop when ctx ends or the grace period expires.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return fmt.Errorf("shutdown cancelled by context: %w", ctx.Err())
	case <-time.After(shutdownGrace):
		s.server.Stop()
		return fmt.Errorf("graceful shutdown timeout, forced stop")
	}
}
