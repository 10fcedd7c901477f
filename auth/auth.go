// Package auth ties browser requests to the console session with a signed
// cookie. The cookie only names the operator; the backend token never leaves
// the console.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-hoardings/httpx"
	"github.com/diewo77/go-hoardings/internal/models"
)

type ctxKey string

const (
	CookieName = "hoardings_session"
	userCtxKey = ctxKey("user")
)

// CurrentUser returns the operator signed in to the backend, if any.
type CurrentUser func() (models.User, bool)

// Sessions issues and checks console cookies.
type Sessions struct {
	secret  []byte
	current CurrentUser
	// Secure marks cookies https-only.
	Secure bool
	now    func() time.Time
}

func NewSessions(secret string, current CurrentUser) *Sessions {
	return &Sessions{secret: []byte(secret), current: current, now: time.Now}
}

func (s *Sessions) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Create sets a signed cookie for userID valid until expires.
func (s *Sessions) Create(w http.ResponseWriter, userID string, expires time.Time) {
	payload := base64.RawURLEncoding.EncodeToString([]byte(userID)) + "." + strconv.FormatInt(expires.Unix(), 10)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    payload + "." + s.sign(payload),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	})
}

// Clear deletes the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1, HttpOnly: true, Secure: s.Secure, SameSite: http.SameSiteLaxMode})
}

// Parse validates the cookie signature and expiry and returns the user id.
func (s *Sessions) Parse(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 3 {
		return "", false
	}
	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(s.sign(payload))) {
		return "", false
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || !s.now().Before(time.Unix(exp, 0)) {
		return "", false
	}
	uid, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil || len(uid) == 0 {
		return "", false
	}
	return string(uid), true
}

// WithUser stores the operator in context.
func WithUser(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userCtxKey, u)
}

// UserFromContext extracts the operator.
func UserFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userCtxKey).(models.User)
	return u, ok
}

// Middleware attaches the operator to the request context when the cookie
// names the user currently signed in to the backend.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := s.Parse(r); ok {
			if u, ok := s.current(); ok && u.ID == uid {
				r = r.WithContext(WithUser(r.Context(), u))
			} else {
				// Backend session ended or another operator signed in.
				s.Clear(w)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth answers 401 when no operator is attached.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			httpx.Error(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
