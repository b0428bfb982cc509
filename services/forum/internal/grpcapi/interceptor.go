package grpcapi

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"

	"github.com/example/forum-platform/internal/platform/auth"
	"github.com/example/forum-platform/internal/platform/httpserver"
)

// UnaryAuth authenticates the "authorization" metadata when present. Calls
// without it proceed anonymously; a bad token is rejected. A forwarded request
// id is kept in the context.
func UnaryAuth(verifier auth.JWTVerifier, log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		if v := md.Get(httpserver.RequestIDMetadata); len(v) > 0 {
			ctx = httpserver.WithRequestID(ctx, v[0])
		}
		if v := md.Get("authorization"); len(v) > 0 && v[0] != "" {
			tok, ok := auth.BearerToken(v[0])
			if !ok {
				return nil, statusErr(codes.Unauthenticated, "AUTH_INVALID", "Invalid bearer token")
			}
			authed, err := auth.Authenticate(ctx, verifier, tok)
			if err != nil {
				log.Debug("rejected token", zap.String("method", info.FullMethod), zap.Error(err))
				return nil, statusErr(codes.Unauthenticated, "AUTH_INVALID", "Invalid token")
			}
			ctx = authed
		}
		return handler(ctx, req)
	}
}
