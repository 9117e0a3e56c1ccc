package auth

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const (
	OperatorHeader  = "x-operator-id"
	defaultOperator = "anonymous"
)

type operatorKey struct{}

func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorKey{}, operator)
}

// GetOperatorID returns the operator issuing the current command. The
// interceptor value wins over raw metadata.
func GetOperatorID(ctx context.Context) string {
	if val, ok := ctx.Value(operatorKey{}).(string); ok && val != "" {
		return val
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get(OperatorHeader); len(val) > 0 && val[0] != "" {
			return val[0]
		}
	}
	return defaultOperator
}

func ContextInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		return handler(WithOperator(ctx, GetOperatorID(ctx)), req)
	}
}
