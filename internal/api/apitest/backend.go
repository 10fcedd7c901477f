// Package apitest provides an in-memory REST backend speaking the same
// envelopes as the real one, for tests of the layers above internal/api.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/diewo77/go-hoardings/internal/api"
	"github.com/diewo77/go-hoardings/internal/derive"
	"github.com/diewo77/go-hoardings/internal/models"
)

type account struct {
	password string
	user     models.User
}

type failure struct {
	status int
	body   string
}

// Backend is a fake inventory backend. Sites are served in a {sites, count}
// envelope, clients in {data, total} and activities as a bare array.
type Backend struct {
	srv *httptest.Server
	now func() time.Time

	mu         sync.Mutex
	sites      map[string]models.Site
	clients    map[string]models.Client
	activities map[string]models.Activity
	accounts   map[string]account
	tokens     map[string]models.User
	failures   map[string][]failure
	calls      map[string]int
	seq        int
	// bare serves sites without activeClientId.
	bare bool
}

// New starts a backend that is closed with the test.
func New(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		now:        time.Now,
		sites:      make(map[string]models.Site),
		clients:    make(map[string]models.Client),
		activities: make(map[string]models.Activity),
		accounts:   make(map[string]account),
		tokens:     make(map[string]models.User),
		failures:   make(map[string][]failure),
		calls:      make(map[string]int),
	}
	b.srv = httptest.NewServer(b.routes())
	t.Cleanup(b.srv.Close)
	return b
}

// URL is the API base URL.
func (b *Backend) URL() string { return b.srv.URL + "/api" }

// Client returns an API client pointed at the backend.
func (b *Backend) Client(mod func(*api.ClientConfig)) *api.Client {
	cfg := api.DefaultClientConfig()
	cfg.BaseURL = b.URL()
	cfg.RateLimit = 1000
	cfg.RateBurst = 100
	if mod != nil {
		mod(cfg)
	}
	return api.NewClient(cfg)
}

// AddUser registers an account that can log in.
func (b *Backend) AddUser(u models.User, password string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[u.Email] = account{password: password, user: u}
}

// Revoke makes the backend answer 401 for token.
func (b *Backend) Revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, token)
}

// FailNext makes the next request matching "METHOD /path" answer status
// with body. Repeated calls queue further failures.
func (b *Backend) FailNext(route string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = append(b.failures[route], failure{status: status, body: body})
}

// OmitOccupancy makes the backend serve sites without activeClientId, as a
// backend that leaves occupancy to the console does.
func (b *Backend) OmitOccupancy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bare = true
}

// Calls reports how many requests reached "METHOD /path".
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

func (b *Backend) nextID(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s%d", prefix, b.seq)
}

// SeedSite stores s, assigning an id when empty.
func (b *Backend) SeedSite(s models.Site) models.Site {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.ID == "" {
		s.ID = b.nextID("s")
	}
	b.sites[s.ID] = s
	return s
}

func (b *Backend) SeedClient(c models.Client) models.Client {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c.ID == "" {
		c.ID = b.nextID("c")
	}
	b.clients[c.ID] = c
	return c
}

func (b *Backend) SeedActivity(a models.Activity) models.Activity {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a.ID == "" {
		a.ID = b.nextID("a")
	}
	b.activities[a.ID] = a
	return a
}

func (b *Backend) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", b.login)
	mux.HandleFunc("GET /api/auth/me", b.authed(b.me))

	mux.HandleFunc("GET /api/sites", b.authed(b.listSites))
	mux.HandleFunc("GET /api/sites/search", b.authed(b.listSites))
	mux.HandleFunc("GET /api/sites/{id}", b.authed(b.getSite))
	mux.HandleFunc("POST /api/sites", b.authed(b.createSite))
	mux.HandleFunc("PUT /api/sites/{id}", b.authed(b.updateSite))
	mux.HandleFunc("DELETE /api/sites/{id}", b.authed(b.deleteSite))

	mux.HandleFunc("GET /api/clients", b.authed(b.listClients))
	mux.HandleFunc("GET /api/clients/search", b.authed(b.listClients))
	mux.HandleFunc("GET /api/clients/{id}", b.authed(b.getClient))
	mux.HandleFunc("POST /api/clients", b.authed(b.createClient))
	mux.HandleFunc("PUT /api/clients/{id}", b.authed(b.updateClient))
	mux.HandleFunc("DELETE /api/clients/{id}", b.authed(b.deleteClient))

	mux.HandleFunc("GET /api/activities", b.authed(b.listActivities))
	mux.HandleFunc("GET /api/activities/{id}", b.authed(b.getActivity))
	mux.HandleFunc("POST /api/activities", b.authed(b.createActivity))
	mux.HandleFunc("PUT /api/activities/{id}", b.authed(b.updateActivity))
	mux.HandleFunc("DELETE /api/activities/{id}", b.authed(b.deleteActivity))

	mux.HandleFunc("GET /api/dashboard/stats", b.authed(b.stats))
	mux.HandleFunc("GET /api/dashboard/recent-activities", b.authed(b.recent))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api")
		b.mu.Lock()
		b.calls[route]++
		var f *failure
		if q := b.failures[route]; len(q) > 0 {
			f = &q[0]
			b.failures[route] = q[1:]
		}
		b.mu.Unlock()
		if f != nil {
			w.WriteHeader(f.status)
			w.Write([]byte(f.body))
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}

// authed enforces bearer tokens once any account exists.
func (b *Backend) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		open := len(b.accounts) == 0
		_, ok := b.tokens[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
		b.mu.Unlock()
		if !open && !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized", "message": "invalid token"})
			return
		}
		next(w, r)
	}
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var creds api.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	b.mu.Lock()
	acc, ok := b.accounts[creds.Email]
	var token string
	if ok && acc.password == creds.Password {
		token = "tok-" + uuid.NewString()
		b.tokens[token] = acc.user
	}
	b.mu.Unlock()
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"token": token, "user": acc.user}})
}

func (b *Backend) me(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	u := b.tokens[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func sorted[T any](m map[string]T, id func(T) string) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b T) int { return strings.Compare(id(a), id(b)) })
	return out
}

func matches(q string, fields ...string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", err.Error())
		return false
	}
	return true
}

// occupancy must be called with b.mu held.
func (b *Backend) occupancy(sites []models.Site) []models.Site {
	if b.bare {
		for i := range sites {
			sites[i].ActiveClientID = nil
		}
		return sites
	}
	acts := sorted(b.activities, func(a models.Activity) string { return a.ID })
	return derive.AnnotateOccupancy(sites, acts, b.now())
}

func (b *Backend) listSites(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	b.mu.Lock()
	out := make([]models.Site, 0)
	for _, s := range sorted(b.sites, func(s models.Site) string { return s.ID }) {
		if matches(q, s.SiteNo, s.Location) {
			out = append(out, s)
		}
	}
	out = b.occupancy(out)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"sites": out, "count": len(out)})
}

func (b *Backend) getSite(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	s, ok := b.sites[r.PathValue("id")]
	if ok {
		s = b.occupancy([]models.Site{s})[0]
	}
	b.mu.Unlock()
	if !ok {
		writeErr(w, http.StatusNotFound, "not_found", "Site not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"site": s})
}

func (b *Backend) createSite(w http.ResponseWriter, r *http.Request) {
	var in models.SiteInput
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	for _, s := range b.sites {
		if strings.EqualFold(s.SiteNo, in.SiteNo) {
			b.mu.Unlock()
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"message": "Validation failed",
				"errors":  map[string]string{"siteNo": "already_exists"},
			})
			return
		}
	}
	now := b.now().UTC()
	s := models.Site{
		ID: b.nextID("s"), SiteNo: in.SiteNo, Location: in.Location, Type: in.Type,
		Size: in.Size, Notes: in.Notes, CreatedAt: now, UpdatedAt: now,
	}
	b.sites[s.ID] = s
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"site": s})
}

func (b *Backend) updateSite(w http.ResponseWriter, r *http.Request) {
	var in models.SiteUpdate
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	s, ok := b.sites[r.PathValue("id")]
	if ok {
		s = s.Apply(in)
		s.UpdatedAt = b.now().UTC()
		b.sites[s.ID] = s
	}
	b.mu.Unlock()
	if !ok {
		writeErr(w, http.StatusNotFound, "not_found", "Site not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"site": s})
}

func (b *Backend) deleteSite(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.sites[id]; !ok {
		writeErr(w, http.StatusNotFound, "not_found", "Site not found")
		return
	}
	for _, a := range b.activities {
		if a.SiteID == id {
			writeErr(w, http.StatusConflict, "has_dependencies", "Site has activities")
			return
		}
	}
	delete(b.sites, id)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) listClients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	b.mu.Lock()
	out := make([]models.Client, 0)
	for _, c := range sorted(b.clients, func(c models.Client) string { return c.ID }) {
		email := ""
		if c.Email != nil {
			email = *c.Email
		}
		if matches(q, c.Name, email) {
			out = append(out, c)
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": out, "total": len(out)})
}

func (b *Backend) getClient(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	c, ok := b.clients[r.PathValue("id")]
	b.mu.Unlock()
	if !ok {
		writeErr(w, http.StatusNotFound, "not_found", "Client not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": c})
}

func (b *Backend) createClient(w http.ResponseWriter, r *http.Request) {
	var in models.ClientInput
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	now := b.now().UTC()
	c := models.Client{
		ID: b.nextID("c"), Name: in.Name, Email: in.Email, Phone: in.Phone, Address: in.Address,
		GSTNumber: in.GSTNumber, Notes: in.Notes, CreatedAt: now, UpdatedAt: now,
	}
	b.clients[c.ID] = c
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"data": c})
}

func (b *Backend) updateClient(w http.ResponseWriter, r *http.Request) {
	var in models.ClientUpdate
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	c, ok := b.clients[r.PathValue("id")]
	if ok {
		c = c.Apply(in)
		c.UpdatedAt = b.now().UTC()
		b.clients[c.ID] = c
	}
	b.mu.Unlock()
	if !ok {
		writeErr(w, http.StatusNotFound, "not_found", "Client not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": c})
}

func (b *Backend) deleteClient(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[id]; !ok {
		writeErr(w, http.StatusNotFound, "not_found", "Client not found")
		return
	}
	for _, a := range b.activities {
		if a.ClientID == id || (a.PreviousClientID != nil && *a.PreviousClientID == id) {
			writeErr(w, http.StatusConflict, "has_dependencies", "Client has activities")
			return
		}
	}
	delete(b.clients, id)
	w.WriteHeader(http.StatusNoContent)
}

// expand must be called with b.mu held.
func (b *Backend) expand(a models.Activity) models.Activity {
	if s, ok := b.sites[a.SiteID]; ok {
		a.Site = &models.SiteRef{ID: s.ID, SiteNo: s.SiteNo, Location: s.Location, Type: s.Type}
	}
	if c, ok := b.clients[a.ClientID]; ok {
		a.Client = &models.ClientRef{ID: c.ID, Name: c.Name}
	}
	if rate := derive.Rate(a); rate > 0 {
		months := derive.Months(a, b.now())
		total := rate * float64(months)
		a.TotalMonths = &months
		a.TotalAmount = &total
	}
	return a
}

func (b *Backend) listActivities(w http.ResponseWriter, r *http.Request) {
	siteID := r.URL.Query().Get("siteId")
	clientID := r.URL.Query().Get("clientId")
	b.mu.Lock()
	out := make([]models.Activity, 0, len(b.activities))
	for _, a := range sorted(b.activities, func(a models.Activity) string { return a.ID }) {
		if siteID != "" && a.SiteID != siteID {
			continue
		}
		if clientID != "" && a.ClientID != clientID {
			continue
		}
		out = append(out, b.expand(a))
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) getActivity(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	a, ok := b.activities[r.PathValue("id")]
	if ok {
		a = b.expand(a)
	}
	b.mu.Unlock()
	if !ok {
		writeErr(w, http.StatusNotFound, "not_found", "Activity not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (b *Backend) createActivity(w http.ResponseWriter, r *http.Request) {
	var in models.ActivityInput
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	_, siteOK := b.sites[in.SiteID]
	_, clientOK := b.clients[in.ClientID]
	if !siteOK || !clientOK {
		b.mu.Unlock()
		writeErr(w, http.StatusBadRequest, "invalid_reference", "Unknown site or client")
		return
	}
	now := b.now().UTC()
	a := models.Activity{
		ID: b.nextID("a"), Action: in.Action, SiteID: in.SiteID, ClientID: in.ClientID,
		PreviousClientID: in.PreviousClientID, DateOfPurchase: in.DateOfPurchase,
		StartDate: in.StartDate, EndDate: in.EndDate, RatePerMonth: in.RatePerMonth,
		PrintingCost: in.PrintingCost, MountingCost: in.MountingCost, Notes: in.Notes,
		CreatedAt: now, UpdatedAt: now,
	}
	b.activities[a.ID] = a
	a = b.expand(a)
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, a)
}

func (b *Backend) updateActivity(w http.ResponseWriter, r *http.Request) {
	var in models.ActivityUpdate
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	a, ok := b.activities[r.PathValue("id")]
	if ok {
		a = a.Apply(in)
		a.UpdatedAt = b.now().UTC()
		b.activities[a.ID] = a
		a = b.expand(a)
	}
	b.mu.Unlock()
	if !ok {
		writeErr(w, http.StatusNotFound, "not_found", "Activity not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (b *Backend) deleteActivity(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b.mu.Lock()
	_, ok := b.activities[id]
	delete(b.activities, id)
	b.mu.Unlock()
	if !ok {
		writeErr(w, http.StatusNotFound, "not_found", "Activity not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) stats(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	sites := b.occupancy(sorted(b.sites, func(s models.Site) string { return s.ID }))
	acts := sorted(b.activities, func(a models.Activity) string { return a.ID })
	st := models.DashboardStats{
		TotalSites:     len(sites),
		TotalClients:   len(b.clients),
		MonthlyRevenue: derive.MonthlyRunRate(acts, now),
	}
	for _, s := range sites {
		if s.Occupied() {
			st.OccupiedSites++
		}
	}
	for _, a := range acts {
		if derive.IsActive(a, now) {
			st.ActiveActivities++
		}
		st.TotalRevenue += derive.ActivityRevenue(a, now)
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": st})
}

func (b *Backend) recent(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	acts := sorted(b.activities, func(a models.Activity) string { return a.ID })
	out := derive.Recent(acts, 5)
	for i := range out {
		out[i] = b.expand(out[i])
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"activities": out})
}
