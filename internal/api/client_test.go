package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/diewo77/go-hoardings/i18n"
	"github.com/diewo77/go-hoardings/internal/apperr"
	"github.com/diewo77/go-hoardings/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc, mod func(*ClientConfig)) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := DefaultClientConfig()
	cfg.BaseURL = srv.URL + "/api"
	cfg.RateLimit = 1000
	cfg.RateBurst = 100
	if mod != nil {
		mod(cfg)
	}
	return NewClient(cfg)
}

func TestClient_SendsHeaders(t *testing.T) {
	var got http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		if r.URL.Path != "/api/sites" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`[]`))
	}, func(cfg *ClientConfig) {
		cfg.Auth = BearerToken{Token: func() string { return "tok-1" }}
	})

	ctx := i18n.WithLang(context.Background(), "hi")
	if _, err := c.Sites().List(ctx); err != nil {
		t.Fatal(err)
	}
	if got.Get("Authorization") != "Bearer tok-1" {
		t.Errorf("Authorization = %q", got.Get("Authorization"))
	}
	if got.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if got.Get("Accept-Language") != "hi" {
		t.Errorf("Accept-Language = %q", got.Get("Accept-Language"))
	}
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header")
		}
		w.Write([]byte(`[]`))
	}, func(cfg *ClientConfig) {
		cfg.Auth = BearerToken{Token: func() string { return "" }}
	})
	if _, err := c.Clients().List(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind apperr.Kind
		wantCode string
	}{
		{"unauthorized", 401, `{"error":"unauthorized","message":"token expired"}`, apperr.KindAuth, "unauthorized"},
		{"not found", 404, `{"message":"Site not found"}`, apperr.KindNotFound, "not_found"},
		{"dependency", 409, `{"code":"has_dependencies","message":"Client has activities"}`, apperr.KindConflict, "has_dependencies"},
		{"dependency as 400", 400, `{"code":"in_use","message":"Client has activities"}`, apperr.KindConflict, "in_use"},
		{"validation", 422, `{"message":"invalid","errors":{"siteNo":"already exists"}}`, apperr.KindValidation, "validation_failed"},
		{"server plain text", 500, `boom`, apperr.KindServer, "server_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, nil)
			_, err := c.Sites().Get(context.Background(), "1")
			e := apperr.As(err)
			if e == nil {
				t.Fatal("expected error")
			}
			if e.Kind != tt.wantKind || e.Code != tt.wantCode {
				t.Fatalf("got kind=%s code=%s, want %s/%s", e.Kind, e.Code, tt.wantKind, tt.wantCode)
			}
			if e.Status != tt.status {
				t.Fatalf("status = %d", e.Status)
			}
		})
	}
}

func TestClient_ValidationFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Validation failed","details":[{"field":"siteNo","message":"taken"}]}`))
	}, nil)
	_, err := c.Sites().Create(context.Background(), models.SiteInput{SiteNo: "S01"})
	e := apperr.As(err)
	if e == nil || e.Fields["siteNo"] != "taken" {
		t.Fatalf("fields = %v", e)
	}
}

func TestClient_OnUnauthorized(t *testing.T) {
	var calls int32
	var seen string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, func(cfg *ClientConfig) {
		cfg.Auth = BearerToken{Token: func() string { return "expired" }}
		cfg.OnUnauthorized = func(tok string) {
			atomic.AddInt32(&calls, 1)
			seen = tok
		}
	})
	_, err := c.Activities().List(context.Background())
	if !errors.Is(err, apperr.ErrAuth) {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 || seen != "expired" {
		t.Fatalf("hook calls=%d token=%q", calls, seen)
	}
}

func TestClient_ForbiddenDoesNotTearDown(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}, func(cfg *ClientConfig) {
		cfg.OnUnauthorized = func(string) { atomic.AddInt32(&calls, 1) }
	})
	_, _ = c.Sites().List(context.Background())
	if calls != 0 {
		t.Fatal("403 must not trigger the unauthorized hook")
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := NewClient(&ClientConfig{BaseURL: url})
	_, err := c.Sites().List(context.Background())
	if apperr.KindOf(err) != apperr.KindNetwork {
		t.Fatalf("kind = %s (%v)", apperr.KindOf(err), err)
	}
	if !apperr.IsRetryable(err) {
		t.Fatal("network errors should be retryable reads")
	}
}

func TestResource_CRUDPaths(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
		switch {
		case r.Method == http.MethodPost:
			var in models.SiteInput
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				t.Errorf("decode body: %v", err)
			}
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("content type = %q", r.Header.Get("Content-Type"))
			}
			json.NewEncoder(w).Encode(map[string]any{"site": models.Site{ID: "9", SiteNo: in.SiteNo}})
		case r.Method == http.MethodPut:
			w.Write([]byte(`{"data":{"id":"9","siteNo":"S-01","location":"Brigade Road"}}`))
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case strings.HasSuffix(r.URL.Path, "/search"):
			w.Write([]byte(`{"sites":[{"id":"9"}],"count":1}`))
		default:
			w.Write([]byte(`{"id":"9","siteNo":"S-01"}`))
		}
	}, nil)
	ctx := context.Background()
	sites := c.Sites()

	created, err := sites.Create(ctx, models.SiteInput{SiteNo: "S-01", Location: "MG Road", Type: models.SiteTypeHoarding})
	if err != nil || created.ID != "9" || created.SiteNo != "S-01" {
		t.Fatalf("create = %+v, %v", created, err)
	}
	updated, err := sites.Update(ctx, "9", models.SiteUpdate{Location: "Brigade Road", Type: models.SiteTypeHoarding})
	if err != nil || updated.Location != "Brigade Road" {
		t.Fatalf("update = %+v, %v", updated, err)
	}
	found, err := sites.Search(ctx, "MG Road")
	if err != nil || len(found) != 1 {
		t.Fatalf("search = %v, %v", found, err)
	}
	if _, err := sites.Get(ctx, "9"); err != nil {
		t.Fatal(err)
	}
	if err := sites.Delete(ctx, "9"); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"POST /api/sites?",
		"PUT /api/sites/9?",
		"GET /api/sites/search?q=MG+Road",
		"GET /api/sites/9?",
		"DELETE /api/sites/9?",
	}
	if len(seen) != len(want) {
		t.Fatalf("requests = %v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("request %d = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestLoginAndMe(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var creds Credentials
			_ = json.NewDecoder(r.Body).Decode(&creds)
			if creds.Password != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"invalid_credentials"}`))
				return
			}
			w.Write([]byte(`{"data":{"accessToken":"jwt-1","user":{"id":"u1","name":"Asha","email":"asha@example.com","role":"manager"}}}`))
		case "/api/auth/me":
			w.Write([]byte(`{"user":{"id":"u1","name":"Asha","email":"asha@example.com","role":"manager"}}`))
		}
	}, nil)

	res, err := c.Login(context.Background(), Credentials{Email: "asha@example.com", Password: "secret"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Token != "jwt-1" || res.User.Role != models.RoleManager {
		t.Fatalf("login = %+v", res)
	}

	_, err = c.Login(context.Background(), Credentials{Email: "asha@example.com", Password: "nope"})
	if e := apperr.As(err); e == nil || e.Code != "invalid_credentials" {
		t.Fatalf("err = %v", err)
	}

	me, err := c.Me(context.Background())
	if err != nil || me.ID != "u1" {
		t.Fatalf("me = %+v, %v", me, err)
	}
}

func TestDashboardEndpoints(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/dashboard/stats":
			w.Write([]byte(`{"data":{"totalSites":4,"occupiedSites":3,"totalClients":2,"activeActivities":3,"monthlyRevenue":45000}}`))
		case "/api/dashboard/recent-activities":
			if r.URL.Query().Get("limit") != "5" {
				t.Errorf("limit = %q", r.URL.Query().Get("limit"))
			}
			w.Write([]byte(`{"activities":[{"id":"a1","startDate":"2024-01-01"}]}`))
		}
	}, nil)
	stats, err := c.DashboardStats(context.Background())
	if err != nil || stats.TotalSites != 4 || stats.MonthlyRevenue != 45000 {
		t.Fatalf("stats = %+v, %v", stats, err)
	}
	recent, err := c.RecentActivities(context.Background(), 5)
	if err != nil || len(recent) != 1 {
		t.Fatalf("recent = %v, %v", recent, err)
	}
}
