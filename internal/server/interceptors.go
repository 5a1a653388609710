package server

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
)

var errInternal = errors.New("internal error")

type requestIDKey struct{}

// RequestID returns the request id assigned by the logging
// interceptor, or "" outside an RPC.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// loggingInterceptor assigns a request id to each RPC and logs its
// completion with method and duration.
func loggingInterceptor(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		id := uuid.New().String()
		ctx = context.WithValue(ctx, requestIDKey{}, id)

		resp, err := handler(ctx, req)

		log.Debug().
			Str("request_id", id).
			Str("method", info.FullMethod).
			Dur("duration", time.Since(start)).
			Err(err).
			Msg("rpc completed")

		return resp, err
	}
}

// recoveryInterceptor converts handler panics into an internal error
// so one bad request cannot take the listener down.
func recoveryInterceptor(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("method", info.FullMethod).
					Interface("panic", r).
					Msg("recovered from panic in rpc handler")
				err = errInternal
			}
		}()
		return handler(ctx, req)
	}
}
