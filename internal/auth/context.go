package auth

import "context"

type operatorKey struct{}

// WithOperator returns a context carrying the authenticated operator email.
func WithOperator(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, operatorKey{}, email)
}

// OperatorFrom returns the operator attached by the auth middleware.
func OperatorFrom(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(operatorKey{}).(string)
	return email, ok && email != ""
}
