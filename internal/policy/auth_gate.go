package policy

import (
	"context"
	"net/http"

	"github.com/diewo77/go-hoardings/auth"
	"github.com/diewo77/go-hoardings/gate"
	"github.com/diewo77/go-hoardings/httpx"
	"github.com/diewo77/go-hoardings/internal/models"
)

// AuthGate checks the operator attached by auth.Middleware against the role
// profiles.
type AuthGate struct {
	Gate *gate.Gate[models.User]
}

func NewAuthGate() *AuthGate {
	resolver := gate.NewRoleResolver(func(u models.User) string { return u.Role }, Profiles())
	return &AuthGate{Gate: gate.New[models.User](resolver)}
}

// Authorize returns nil if the current operator may perform action on
// resourceType.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string) error {
	u, ok := auth.UserFromContext(ctx)
	if !ok {
		return gate.ErrUnauthorized
	}
	return ag.Gate.Authorize(ctx, u, action, resourceType)
}

// Can is Authorize as a bool.
func (ag *AuthGate) Can(ctx context.Context, action gate.Action, resourceType string) bool {
	return ag.Authorize(ctx, action, resourceType) == nil
}

// Permissions lists the operator's grants so the UI can hide actions up front.
func (ag *AuthGate) Permissions(ctx context.Context) []gate.Permission {
	u, ok := auth.UserFromContext(ctx)
	if !ok {
		return nil
	}
	p := ag.Gate.Profile(ctx, u)
	if p == nil {
		return []gate.Permission{}
	}
	return p.Permissions()
}

// RequirePermission returns middleware answering 401 without an operator and
// 403 when the role lacks resourceType:action.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch ag.Authorize(r.Context(), action, resourceType) {
			case nil:
				next.ServeHTTP(w, r)
			case gate.ErrUnauthorized:
				httpx.Error(w, r, http.StatusUnauthorized, "unauthorized")
			default:
				httpx.Error(w, r, http.StatusForbidden, "forbidden")
			}
		})
	}
}
