package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diewo77/go-hoardings/internal/models"
)

func signedRequest(t *testing.T, s *Sessions, uid string, expires time.Time) *http.Request {
	t.Helper()
	w := httptest.NewRecorder()
	s.Create(w, uid, expires)
	r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestParse(t *testing.T) {
	s := NewSessions("secret", nil)
	r := signedRequest(t, s, "u-42", time.Now().Add(time.Hour))
	if uid, ok := s.Parse(r); !ok || uid != "u-42" {
		t.Fatalf("Parse() = %q, %v", uid, ok)
	}

	other := NewSessions("other", nil)
	if _, ok := other.Parse(r); ok {
		t.Error("cookie signed with another secret accepted")
	}

	expired := signedRequest(t, s, "u-42", time.Now().Add(-time.Minute))
	if _, ok := s.Parse(expired); ok {
		t.Error("expired cookie accepted")
	}

	tampered := httptest.NewRequest(http.MethodGet, "/", nil)
	c, _ := r.Cookie(CookieName)
	tampered.AddCookie(&http.Cookie{Name: CookieName, Value: "dS0x" + c.Value[4:]})
	if _, ok := s.Parse(tampered); ok {
		t.Error("tampered cookie accepted")
	}
}

func TestMiddleware(t *testing.T) {
	current := models.User{ID: "u1", Name: "Asha", Role: models.RoleAdmin}
	signedIn := true
	s := NewSessions("secret", func() (models.User, bool) { return current, signedIn })
	h := s.Middleware(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := UserFromContext(r.Context())
		w.Write([]byte(u.Name))
	})))

	tests := []struct {
		name       string
		req        *http.Request
		signedIn   bool
		wantStatus int
		wantClear  bool
	}{
		{"no cookie", httptest.NewRequest(http.MethodGet, "/", nil), true, http.StatusUnauthorized, false},
		{"current user", signedRequest(t, s, "u1", time.Now().Add(time.Hour)), true, http.StatusOK, false},
		{"other user", signedRequest(t, s, "u2", time.Now().Add(time.Hour)), true, http.StatusUnauthorized, true},
		{"backend signed out", signedRequest(t, s, "u1", time.Now().Add(time.Hour)), false, http.StatusUnauthorized, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signedIn = tt.signedIn
			w := httptest.NewRecorder()
			h.ServeHTTP(w, tt.req)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			cleared := false
			for _, c := range w.Result().Cookies() {
				if c.Name == CookieName && c.MaxAge < 0 {
					cleared = true
				}
			}
			if cleared != tt.wantClear {
				t.Errorf("cleared = %v, want %v", cleared, tt.wantClear)
			}
			if tt.wantStatus == http.StatusOK && w.Body.String() != "Asha" {
				t.Errorf("body = %q", w.Body.String())
			}
		})
	}
}
