package audit

import "context"

type clientIPKey struct{}

// WithClientIP attaches the resolved client IP so services deep in the call
// chain can stamp audit events without seeing the HTTP request.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func ClientIPFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(clientIPKey{}).(string); ok {
		return s
	}
	return ""
}
