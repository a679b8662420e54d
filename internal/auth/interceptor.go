package auth

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

func logAuthFailure(logger *zap.Logger, ctx context.Context, reason string, fields ...zap.Field) {
	fields = append(fields, zap.String("reason", reason))
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		fields = append(fields, zap.String("peer_addr", p.Addr.String()))
	}
	logger.Warn("auth failure", fields...)
}

func authenticate(ctx context.Context, verifier TokenVerifier, operators Authorizer, logger *zap.Logger) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		logAuthFailure(logger, ctx, "missing metadata")
		return "", status.Error(codes.Unauthenticated, "missing metadata")
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		logAuthFailure(logger, ctx, "missing authorization")
		return "", status.Error(codes.Unauthenticated, "missing authorization")
	}
	token, errMsg := extractBearerToken(values[0])
	if errMsg != "" {
		logAuthFailure(logger, ctx, errMsg)
		return "", status.Error(codes.Unauthenticated, errMsg)
	}

	subject, err := verifier.Verify(token)
	if err != nil {
		logAuthFailure(logger, ctx, "invalid token", zap.Error(err))
		return "", status.Error(codes.Unauthenticated, "invalid token")
	}
	if !operators.IsOperator(subject) {
		logAuthFailure(logger, ctx, "not an operator", zap.String("subject", subject))
		return "", status.Error(codes.PermissionDenied, "not an operator")
	}
	return subject, nil
}

// UnaryInterceptor authenticates unary calls and attaches the operator to the
// handler context.
func UnaryInterceptor(verifier TokenVerifier, operators Authorizer, logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		subject, err := authenticate(ctx, verifier, operators, logger)
		if err != nil {
			return nil, err
		}
		return handler(WithOperator(ctx, subject), req)
	}
}

// StreamInterceptor authenticates streaming calls.
func StreamInterceptor(verifier TokenVerifier, operators Authorizer, logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		subject, err := authenticate(ss.Context(), verifier, operators, logger)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{
			ServerStream: ss,
			ctx:          WithOperator(ss.Context(), subject),
		})
	}
}

type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}

// BearerToken is client-side per-RPC credentials carrying a static token.
// It is meant for the local unix socket and does not require TLS.
type BearerToken string

// GetRequestMetadata implements credentials.PerRPCCredentials.
func (t BearerToken) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + string(t)}, nil
}

// RequireTransportSecurity implements credentials.PerRPCCredentials.
func (BearerToken) RequireTransportSecurity() bool { return false }
