package identity

import "context"

// Source tags which authentication path produced an identity.
type Source string

const (
	SourceToken    Source = "self-issued-token"
	SourceProvider Source = "external-provider-session"
	SourceNone     Source = "none"
)

// RequestIdentity is the per-request resolution outcome. A nil UserID means
// the request is unauthenticated, which is a valid outcome by itself; whether
// that is acceptable is decided by the role gate on each route.
type RequestIdentity struct {
	UserID *int64
	Role   *Role
	Source Source
}

// Anonymous returns the unauthenticated identity.
func Anonymous() RequestIdentity {
	return RequestIdentity{Source: SourceNone}
}

// Authenticated reports whether a user was resolved.
func (id RequestIdentity) Authenticated() bool { return id.UserID != nil && id.Role != nil }

// unexported, collision-proof context key
type identityContextKeyType struct{}

var identityKey = identityContextKeyType{}

// WithIdentity attaches the resolved identity to a request context.
func WithIdentity(ctx context.Context, id RequestIdentity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext extracts the resolved identity. The zero value (anonymous)
// is returned when no resolver ran, so callers never need a nil check.
func FromContext(ctx context.Context) RequestIdentity {
	if id, ok := ctx.Value(identityKey).(RequestIdentity); ok {
		return id
	}
	return Anonymous()
}
