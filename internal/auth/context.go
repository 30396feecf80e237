package auth

import "context"

type contextKey string

const principalKey contextKey = "principal"

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

// TenantClaim returns the tenant carried by the caller's token, if any.
func TenantClaim(ctx context.Context) string {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.TenantID
	}
	return ""
}
