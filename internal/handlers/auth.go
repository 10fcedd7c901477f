package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/go-hoardings/auth"
	"github.com/diewo77/go-hoardings/gate"
	"github.com/diewo77/go-hoardings/httpx"
	"github.com/diewo77/go-hoardings/internal/models"
)

// sessionTTL bounds the console cookie when the backend token carries no
// expiry.
const sessionTTL = 14 * 24 * time.Hour

// SessionManager is the backend session behind the console cookie.
type SessionManager interface {
	Login(ctx context.Context, email, password string) (models.User, error)
	Logout(ctx context.Context) error
	ExpiresAt() time.Time
}

// PermissionLister lists the grants of the operator in ctx.
type PermissionLister interface {
	Permissions(ctx context.Context) []gate.Permission
}

type AuthHandler struct {
	session SessionManager
	cookies *auth.Sessions
	perms   PermissionLister
	now     func() time.Time
}

func NewAuthHandler(session SessionManager, cookies *auth.Sessions, perms PermissionLister) *AuthHandler {
	return &AuthHandler{session: session, cookies: cookies, perms: perms, now: time.Now}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	User        models.User       `json:"user"`
	Permissions []gate.Permission `json:"permissions"`
	ExpiresAt   *time.Time        `json:"expiresAt,omitempty"`
}

func (h *AuthHandler) me(ctx context.Context, u models.User) meResponse {
	resp := meResponse{User: u, Permissions: h.perms.Permissions(auth.WithUser(ctx, u))}
	if exp := h.session.ExpiresAt(); !exp.IsZero() {
		resp.ExpiresAt = &exp
	}
	return resp
}

// Login signs in against the backend and issues the console cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	u, err := h.session.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	expires := h.session.ExpiresAt()
	if expires.IsZero() {
		expires = h.now().Add(sessionTTL)
	}
	h.cookies.Create(w, u.ID, expires)
	httpx.JSON(w, http.StatusOK, h.me(r.Context(), u))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	if err := h.session.Logout(r.Context()); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in operator and the permissions of their role.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.Error(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	httpx.JSON(w, http.StatusOK, h.me(r.Context(), u))
}
