package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"github.com/diewo77/go-hoardings/internal/api"
	"github.com/diewo77/go-hoardings/internal/cache"
	"github.com/diewo77/go-hoardings/internal/config"
	"github.com/diewo77/go-hoardings/internal/db"
	"github.com/diewo77/go-hoardings/internal/filters"
	"github.com/diewo77/go-hoardings/internal/policy"
	"github.com/diewo77/go-hoardings/internal/prefs"
	"github.com/diewo77/go-hoardings/internal/session"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()

	log.Printf("Opening preference store: %s", db.MaskDSN(cfg.Storage.DSN))
	dbConn, err := db.ConnectAndMigrate(cfg.Storage.DSN, cfg.Storage.Debug)
	if err != nil {
		log.Fatalf("Failed to open preference store: %v", err)
	}
	if *migrateOnlyFlag {
		log.Println("Migrations completed successfully")
		return
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	appHandler, mgr, c := wire(cfg, dbConn, reg)
	if err := mgr.Restore(context.Background()); err != nil {
		log.Printf("Could not restore previous session: %v", err)
	} else if u, ok := mgr.User(); ok {
		log.Printf("Restored session for %s", u.Email)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      withLogging(appHandler),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		log.Printf("Server starting on port %s (env=%s, backend=%s)", cfg.Port, cfg.Env, cfg.Backend.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	c.Clear()
	if sqlDB, err := dbConn.DB(); err == nil {
		sqlDB.Close()
	}
	log.Println("Server stopped gracefully")
}

// wire builds the console on top of an opened preference store. The session
// manager and the backend client reference each other, so the client reads
// the manager's token and reports 401s back to it.
func wire(cfg config.Config, dbConn *gorm.DB, reg *prometheus.Registry) (*App, *session.Manager, *cache.Cache) {
	store := prefs.NewStore(dbConn)
	c := cache.New(cacheOptions(cfg.Cache, reg))
	filterStore := filters.NewStore(store)
	mgr := session.New(store, c, filterStore)

	clientCfg := api.DefaultClientConfig()
	clientCfg.BaseURL = cfg.Backend.BaseURL
	clientCfg.Timeout = cfg.Backend.Timeout
	clientCfg.RateLimit = cfg.Backend.RateLimit
	clientCfg.RateBurst = cfg.Backend.RateBurst
	clientCfg.Auth = api.BearerToken{Token: mgr.Token}
	clientCfg.OnUnauthorized = mgr.HandleUnauthorized
	clientCfg.Registerer = reg
	client := api.NewClient(clientCfg)
	mgr.Bind(client)

	routerCfg := policy.NewRouterConfig(policy.Deps{
		Client:        client,
		Cache:         c,
		Filters:       filterStore,
		Prefs:         store,
		Session:       mgr,
		SessionSecret: cfg.SessionSecret,
		SecureCookies: cfg.IsProduction(),
	})
	return NewApp(routerCfg, reg), mgr, c
}

func cacheOptions(cc config.CacheConfig, reg prometheus.Registerer) cache.Options {
	opts := cache.DefaultOptions()
	opts.Staleness[cache.EntitySites] = cc.SitesTTL
	opts.Staleness[cache.EntityClients] = cc.ClientsTTL
	opts.Staleness[cache.EntityActivities] = cc.ActivitiesTTL
	opts.Staleness[cache.EntityDashboard] = cc.DashboardTTL
	opts.ReadRetries = cc.ReadRetries
	opts.Registerer = reg
	return opts
}

// withLogging adds request logging middleware.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
