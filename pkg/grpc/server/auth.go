package server

import (
	"context"
	"crypto/subtle"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	authorizationHeader = "authorization"
	adminNameHeader     = "x-admin-name"
	bearerPrefix        = "bearer "
)

// Admin is the caller identity established by AdminAuthInterceptor.
type Admin struct {
	ID   string
	Name string
}

type adminKey struct{}

// ContextWithAdmin stores a as the authenticated caller.
func ContextWithAdmin(ctx context.Context, a Admin) context.Context {
	return context.WithValue(ctx, adminKey{}, a)
}

// AdminFromContext returns the caller stored by AdminAuthInterceptor.
func AdminFromContext(ctx context.Context) (Admin, bool) {
	a, ok := ctx.Value(adminKey{}).(Admin)
	return a, ok
}

// AdminAuthInterceptor requires "authorization: Bearer <token>" on every call
// except the health and reflection services. With an empty token every
// guarded call is refused.
func AdminAuthInterceptor(token string, logger *zap.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if isPublicMethod(info.FullMethod) {
			return handler(ctx, req)
		}
		if token == "" {
			logger.Warn("admin call refused: no admin token configured", zap.String("method", info.FullMethod))
			return nil, status.Error(codes.PermissionDenied, "administrator access is not configured")
		}

		md, _ := metadata.FromIncomingContext(ctx)
		got := bearer(md.Get(authorizationHeader))
		if got == "" {
			return nil, status.Error(codes.Unauthenticated, "missing bearer token")
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			logger.Warn("admin call refused: bad token", zap.String("method", info.FullMethod))
			return nil, status.Error(codes.PermissionDenied, "invalid administrator token")
		}

		name := "admin"
		if v := md.Get(adminNameHeader); len(v) > 0 && strings.TrimSpace(v[0]) != "" {
			name = strings.TrimSpace(v[0])
		}
		return handler(ContextWithAdmin(ctx, Admin{ID: "token:" + name, Name: name}), req)
	}
}

func bearer(values []string) string {
	if len(values) == 0 {
		return ""
	}
	v := strings.TrimSpace(values[0])
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

func isPublicMethod(method string) bool {
	return strings.HasPrefix(method, "/grpc.health.v1.") || strings.HasPrefix(method, "/grpc.reflection.")
}
