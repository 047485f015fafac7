package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor logs unary calls. Health probes are logged at debug level.
func LoggingInterceptor(log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(start)

		code := status.Code(err)
		switch {
		case err != nil:
			log.Error("gRPC request failed", "method", info.FullMethod, "code", code.String(), "duration", duration, "error", err)
		case strings.HasPrefix(info.FullMethod, "/grpc.health.v1.Health/"):
			log.Debug("gRPC request completed", "method", info.FullMethod, "duration", duration)
		default:
			log.Info("gRPC request completed", "method", info.FullMethod, "code", code.String(), "duration", duration)
		}
		return resp, err
	}
}
