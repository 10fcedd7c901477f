// Package session owns the operator's sign-in state. Logging in stores the
// backend token and profile; logging out (or any 401 from the backend)
// forgets them and tears down the cache and the list filters.
package session

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/diewo77/go-hoardings/internal/api"
	"github.com/diewo77/go-hoardings/internal/apperr"
	"github.com/diewo77/go-hoardings/internal/cache"
	"github.com/diewo77/go-hoardings/internal/filters"
	"github.com/diewo77/go-hoardings/internal/models"
)

// Authenticator is the backend side of the session.
type Authenticator interface {
	Login(ctx context.Context, creds api.Credentials) (api.LoginResult, error)
	Me(ctx context.Context) (models.User, error)
}

// Store persists the session between restarts.
type Store interface {
	Token(ctx context.Context) (string, error)
	User(ctx context.Context) (*models.User, error)
	SaveSession(ctx context.Context, token string, user models.User) error
	ClearSession(ctx context.Context) error
}

type Manager struct {
	store   Store
	cache   *cache.Cache
	filters *filters.Store
	now     func() time.Time

	mu        sync.RWMutex
	auth      Authenticator
	token     string
	user      *models.User
	expiresAt time.Time
}

func New(store Store, c *cache.Cache, f *filters.Store) *Manager {
	return &Manager{store: store, cache: c, filters: f, now: time.Now}
}

// Bind sets the backend used by Login and Profile. The backend client itself
// reads Token, so the two are wired after construction.
func (m *Manager) Bind(a Authenticator) {
	m.mu.Lock()
	m.auth = a
	m.mu.Unlock()
}

// TokenExpiry reads the exp claim of a JWT without verifying it; the backend
// verifies. Opaque tokens report ok=false.
func TokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Restore reloads a persisted session at startup. Expired tokens are dropped.
func (m *Manager) Restore(ctx context.Context) error {
	tok, err := m.store.Token(ctx)
	if err != nil {
		return fmt.Errorf("restore token: %w", err)
	}
	if tok == "" {
		return nil
	}
	exp, hasExp := TokenExpiry(tok)
	if hasExp && !m.now().Before(exp) {
		log.Printf("session: stored token expired at %s", exp.Format(time.RFC3339))
		return m.store.ClearSession(ctx)
	}
	user, err := m.store.User(ctx)
	if err != nil {
		return fmt.Errorf("restore user: %w", err)
	}

	m.mu.Lock()
	m.token = tok
	m.user = user
	m.expiresAt = exp
	m.mu.Unlock()
	return nil
}

// Token returns the bearer token, or "" when signed out or expired.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" {
		return ""
	}
	if !m.expiresAt.IsZero() && !m.now().Before(m.expiresAt) {
		return ""
	}
	return m.token
}

// Authenticated reports whether a usable token is held.
func (m *Manager) Authenticated() bool { return m.Token() != "" }

// User returns the cached profile.
func (m *Manager) User() (models.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil || m.token == "" {
		return models.User{}, false
	}
	return *m.user, true
}

// ExpiresAt returns the token expiry, zero when unknown.
func (m *Manager) ExpiresAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.expiresAt
}

// Login authenticates against the backend and starts a fresh session.
func (m *Manager) Login(ctx context.Context, email, password string) (models.User, error) {
	email = strings.TrimSpace(email)
	fields := map[string]string{}
	if email == "" {
		fields["email"] = "required"
	}
	if password == "" {
		fields["password"] = "required"
	}
	if len(fields) > 0 {
		return models.User{}, apperr.Validation(fields)
	}

	m.mu.RLock()
	auth := m.auth
	m.mu.RUnlock()
	if auth == nil {
		return models.User{}, fmt.Errorf("session: no authenticator bound")
	}

	res, err := auth.Login(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindAuth {
			e := apperr.As(err)
			return models.User{}, &apperr.Error{Kind: apperr.KindAuth, Code: "invalid_credentials", Status: e.Status, Err: err}
		}
		return models.User{}, err
	}

	exp, _ := TokenExpiry(res.Token)
	m.cache.Clear()
	m.filters.ResetAll()

	m.mu.Lock()
	m.token = res.Token
	m.expiresAt = exp
	m.user = nil
	m.mu.Unlock()

	user := res.User
	if user.ID == "" {
		user, err = auth.Me(ctx)
		if err != nil {
			m.reset()
			return models.User{}, fmt.Errorf("load profile: %w", err)
		}
	}

	m.mu.Lock()
	m.user = &user
	m.mu.Unlock()
	m.cache.Set(cache.CurrentUser, user)

	if err := m.store.SaveSession(ctx, res.Token, user); err != nil {
		log.Printf("session: persist: %v", err)
	}
	log.Printf("session: %s signed in as %s", user.Email, user.Role)
	return user, nil
}

// Profile returns the operator profile through the cache, refreshing it from
// the backend when stale.
func (m *Manager) Profile(ctx context.Context) (models.User, error) {
	m.mu.RLock()
	auth := m.auth
	m.mu.RUnlock()
	if !m.Authenticated() || auth == nil {
		return models.User{}, apperr.FromStatus(401, "", "")
	}
	u, err := cache.Get(ctx, m.cache, cache.CurrentUser, auth.Me)
	if err != nil {
		return models.User{}, err
	}
	m.mu.Lock()
	m.user = &u
	m.mu.Unlock()
	return u, nil
}

// Logout forgets the session, clears the cache and resets every list.
func (m *Manager) Logout(ctx context.Context) error {
	m.reset()
	if err := m.store.ClearSession(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (m *Manager) reset() {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.expiresAt = time.Time{}
	m.mu.Unlock()
	m.cache.Clear()
	m.filters.ResetAll()
}

// HandleUnauthorized tears the session down after the backend rejected
// token. Only the first rejection of the current token has an effect; late
// 401s for an older token are ignored.
func (m *Manager) HandleUnauthorized(token string) {
	m.mu.Lock()
	if token == "" || token != m.token {
		m.mu.Unlock()
		return
	}
	m.token = ""
	m.user = nil
	m.expiresAt = time.Time{}
	m.mu.Unlock()

	log.Printf("session: backend rejected token, signing out")
	m.cache.Clear()
	m.filters.ResetAll()
	if err := m.store.ClearSession(context.Background()); err != nil {
		log.Printf("session: clear after 401: %v", err)
	}
}
