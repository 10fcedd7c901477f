package policy

import (
	"github.com/diewo77/go-hoardings/auth"
	"github.com/diewo77/go-hoardings/internal/api"
	"github.com/diewo77/go-hoardings/internal/cache"
	"github.com/diewo77/go-hoardings/internal/filters"
	"github.com/diewo77/go-hoardings/internal/handlers"
	"github.com/diewo77/go-hoardings/internal/prefs"
	"github.com/diewo77/go-hoardings/internal/services"
	"github.com/diewo77/go-hoardings/internal/session"
)

// Deps are the long-lived objects built once at startup.
type Deps struct {
	Client        *api.Client
	Cache         *cache.Cache
	Filters       *filters.Store
	Prefs         *prefs.Store
	Session       *session.Manager
	SessionSecret string
	SecureCookies bool
}

// RouterConfig holds configured handlers and middleware for the console.
type RouterConfig struct {
	AuthGate *AuthGate
	Sessions *auth.Sessions

	AuthHandler        *handlers.AuthHandler
	SiteHandler        *handlers.SiteHandler
	ClientHandler      *handlers.ClientHandler
	ActivityHandler    *handlers.ActivityHandler
	DashboardHandler   *handlers.DashboardHandler
	FilterHandler      *handlers.FilterHandler
	PreferencesHandler *handlers.PreferencesHandler

	Inventory *services.Inventory
	Dashboard *services.Dashboard
}

// NewRouterConfig wires the services, the authorization gate and the
// handlers on top of d.
func NewRouterConfig(d Deps) *RouterConfig {
	authGate := NewAuthGate()
	sessions := auth.NewSessions(d.SessionSecret, d.Session.User)
	sessions.Secure = d.SecureCookies

	inv := services.NewInventory(d.Client, d.Cache)
	dashboard := services.NewDashboard(inv, d.Client, d.Cache)
	exporter := services.NewExporter(inv)

	return &RouterConfig{
		AuthGate:           authGate,
		Sessions:           sessions,
		AuthHandler:        handlers.NewAuthHandler(d.Session, sessions, authGate),
		SiteHandler:        handlers.NewSiteHandler(inv, d.Filters),
		ClientHandler:      handlers.NewClientHandler(inv, d.Filters),
		ActivityHandler:    handlers.NewActivityHandler(inv, d.Filters, exporter),
		DashboardHandler:   handlers.NewDashboardHandler(dashboard),
		FilterHandler:      handlers.NewFilterHandler(d.Filters),
		PreferencesHandler: handlers.NewPreferencesHandler(d.Prefs),
		Inventory:          inv,
		Dashboard:          dashboard,
	}
}
