package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

const pingTimeout = 2 * time.Second

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "grpc call", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start))
	return resp, err
}

// readinessInterceptor refreshes the overall serving status from a database
// ping before a health check is answered.
func (s *GRPCServer) readinessInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if info.FullMethod == healthpb.Health_Check_FullMethodName && s.db != nil {

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := s.db.PingContext(pingCtx)
		cancel()

		st := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			s.logger.Warn(ctx, "database ping failed", "error", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
		s.health.SetServingStatus("", st)

	}

	return handler(ctx, req)
}
