package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/diewo77/go-hoardings/auth"
	"github.com/diewo77/go-hoardings/gate"
	"github.com/diewo77/go-hoardings/internal/middleware"
	"github.com/diewo77/go-hoardings/internal/policy"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	routerCfg *policy.RouterConfig
	handler   http.Handler
}

// NewApp creates a new application with all routes configured. gatherer
// backs /metrics and may be nil.
func NewApp(routerCfg *policy.RouterConfig, gatherer prometheus.Gatherer) *App {
	app := &App{
		mux:       http.NewServeMux(),
		routerCfg: routerCfg,
	}
	app.setupRoutes(gatherer)
	// Global middleware: language, then the operator behind the cookie.
	app.handler = middleware.Lang(routerCfg.Sessions.Middleware(app.mux))
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes(gatherer prometheus.Gatherer) {
	// ─────────────────────────────────────────────────────────────────────────
	// Public routes (no auth required)
	// ─────────────────────────────────────────────────────────────────────────
	ah := a.routerCfg.AuthHandler

	a.mux.HandleFunc("POST /login", ah.Login)
	a.mux.HandleFunc("POST /logout", ah.Logout)
	a.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if gatherer != nil {
		a.mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Authenticated routes (require a signed-in operator)
	// ─────────────────────────────────────────────────────────────────────────
	fh := a.routerCfg.FilterHandler
	prh := a.routerCfg.PreferencesHandler

	a.mux.Handle("GET /api/me", auth.RequireAuth(http.HandlerFunc(ah.Me)))
	a.mux.Handle("GET /api/filters/{entity}", auth.RequireAuth(http.HandlerFunc(fh.Get)))
	a.mux.Handle("PATCH /api/filters/{entity}", auth.RequireAuth(http.HandlerFunc(fh.Update)))
	a.mux.Handle("DELETE /api/filters/{entity}", auth.RequireAuth(http.HandlerFunc(fh.Reset)))
	a.mux.Handle("GET /api/preferences", auth.RequireAuth(http.HandlerFunc(prh.Get)))
	a.mux.Handle("PUT /api/preferences", auth.RequireAuth(http.HandlerFunc(prh.Update)))

	// ─────────────────────────────────────────────────────────────────────────
	// Protected resource routes (require auth + specific permissions)
	// ─────────────────────────────────────────────────────────────────────────
	sh := a.routerCfg.SiteHandler
	ch := a.routerCfg.ClientHandler
	ach := a.routerCfg.ActivityHandler
	dh := a.routerCfg.DashboardHandler

	// Sites
	a.route("GET /api/sites", policy.ResourceSites, gate.ActionList, sh.List)
	a.route("POST /api/sites", policy.ResourceSites, gate.ActionCreate, sh.Create)
	a.route("GET /api/sites/{id}", policy.ResourceSites, gate.ActionView, sh.Get)
	a.route("PUT /api/sites/{id}", policy.ResourceSites, gate.ActionUpdate, sh.Update)
	a.route("DELETE /api/sites/{id}", policy.ResourceSites, gate.ActionDelete, sh.Delete)
	a.route("GET /api/sites/{id}/activities", policy.ResourceActivities, gate.ActionList, sh.History)

	// Clients
	a.route("GET /api/clients", policy.ResourceClients, gate.ActionList, ch.List)
	a.route("POST /api/clients", policy.ResourceClients, gate.ActionCreate, ch.Create)
	a.route("GET /api/clients/{id}", policy.ResourceClients, gate.ActionView, ch.Get)
	a.route("PUT /api/clients/{id}", policy.ResourceClients, gate.ActionUpdate, ch.Update)
	a.route("DELETE /api/clients/{id}", policy.ResourceClients, gate.ActionDelete, ch.Delete)

	// Activities
	a.route("GET /api/activities", policy.ResourceActivities, gate.ActionList, ach.List)
	a.route("GET /api/activities/export", policy.ResourceActivities, gate.ActionExport, ach.Export)
	a.route("POST /api/activities", policy.ResourceActivities, gate.ActionCreate, ach.Create)
	a.route("GET /api/activities/{id}", policy.ResourceActivities, gate.ActionView, ach.Get)
	a.route("PUT /api/activities/{id}", policy.ResourceActivities, gate.ActionUpdate, ach.Update)
	a.route("DELETE /api/activities/{id}", policy.ResourceActivities, gate.ActionDelete, ach.Delete)

	// Dashboard
	a.route("GET /api/dashboard", policy.ResourceDashboard, gate.ActionView, dh.Summary)
}

// route registers h behind authentication and the resourceType:action check.
func (a *App) route(pattern, resourceType string, action gate.Action, h http.HandlerFunc) {
	a.mux.Handle(pattern, auth.RequireAuth(a.requirePermission(resourceType, action)(h)))
}

// requirePermission wraps a handler to require specific resource permission.
func (a *App) requirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return a.routerCfg.AuthGate.RequirePermission(resourceType, action)
}
