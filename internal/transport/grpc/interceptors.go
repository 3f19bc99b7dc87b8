package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"salonbook/backend/internal/auth"
	"salonbook/backend/internal/domain"
)

type authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Actor, error)
}

// RequestTimeoutInterceptor applies timeout to calls that arrive without a
// deadline.
func RequestTimeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return handler(ctx, req)
	}
}

// AuthInterceptor resolves the bearer token in the authorization metadata
// for calls to the scheduling service. Other services, such as health,
// pass through untouched.
func AuthInterceptor(authn authenticator) grpc.UnaryServerInterceptor {
	prefix := "/" + ServiceName + "/"
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !strings.HasPrefix(info.FullMethod, prefix) {
			return handler(ctx, req)
		}
		var token string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get("authorization"); len(values) > 0 {
				token = auth.BearerToken(values[0])
			}
		}
		actor, err := authn.Authenticate(ctx, token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				return nil, status.Error(codes.Unauthenticated, "missing or invalid bearer token")
			}
			return nil, status.Error(codes.Internal, "internal error")
		}
		return handler(auth.WithActor(ctx, actor), req)
	}
}
