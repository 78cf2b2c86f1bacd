package auth

import (
	"context"

	"github.com/fekuna/omnipos-restaurant-service/internal/apperror"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
)

type UserContext struct {
	Username string
	Role     model.Role
}

// Anonymous is the identity of a caller without a valid session.
var Anonymous = UserContext{Role: model.RoleAnonymous}

type userKey struct{}

func WithUser(ctx context.Context, user UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser returns the caller attached by the authentication middleware, or Anonymous.
func GetUser(ctx context.Context) UserContext {
	if val, ok := ctx.Value(userKey{}).(UserContext); ok {
		return val
	}
	return Anonymous
}

func GetRole(ctx context.Context) model.Role {
	return GetUser(ctx).Role
}

func GetUsername(ctx context.Context) string {
	return GetUser(ctx).Username
}

// Require checks role against the allowed set. Anonymous callers get Unauthenticated,
// authenticated callers outside the set get Forbidden.
func Require(role model.Role, allowed ...model.Role) error {
	if role == model.RoleAnonymous || role == "" {
		return apperror.New(apperror.KindUnauthenticated, "authentication required")
	}
	for _, r := range allowed {
		if r == role {
			return nil
		}
	}
	return apperror.New(apperror.KindForbidden, "role %s may not perform this operation", role)
}
