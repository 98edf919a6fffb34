package auth

import "context"

// Identity 是经过令牌校验后的调用方身份，由中间件注入，
// 之后显式传给每一次仓储调用。
type Identity struct {
	UserID uint
}

type identityKey struct{}

// WithIdentity 返回携带调用方身份的子 context。
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext 取出调用方身份。
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID == 0 {
		return Identity{}, false
	}
	return id, true
}
