package auth

import "context"

// Identity is who performs an operation. AccountID is empty for visitors
// who only gave a display name.
type Identity struct {
	AccountID   string `json:"accountId,omitempty"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

func (id Identity) Authenticated() bool {
	return id.AccountID != ""
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by WithIdentity, or an anonymous one.
func IdentityFrom(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey{}).(Identity)
	return id
}
