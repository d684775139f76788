package auth

import "context"

type contextKey string

const contextKeyIdentity contextKey = "auth.identity"

// Identity is the authenticated caller of one request.
type Identity struct {
	Subject string
	Name    string
	Role    string
}

// DisplayName returns the name documents are attributed to.
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Subject
}

// WithIdentity stores auth identity details in context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity, identity)
}

// IdentityFromContext extracts the identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	identity, ok := ctx.Value(contextKeyIdentity).(Identity)
	return identity, ok
}

// SubjectFromContext extracts subject from context.
func SubjectFromContext(ctx context.Context) string {
	identity, _ := IdentityFromContext(ctx)
	return identity.Subject
}

// RoleFromContext extracts role from context.
func RoleFromContext(ctx context.Context) string {
	identity, _ := IdentityFromContext(ctx)
	return identity.Role
}
