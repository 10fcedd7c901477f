package services

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/diewo77/go-hoardings/internal/api"
	"github.com/diewo77/go-hoardings/internal/apperr"
	"github.com/diewo77/go-hoardings/internal/cache"
	"github.com/diewo77/go-hoardings/internal/derive"
	"github.com/diewo77/go-hoardings/internal/models"
)

const (
	DefaultExpiringDays = 30
	DefaultRecentLimit  = 10
)

// Summary is the dashboard aggregate computed from the cached lists.
type Summary struct {
	TotalSites    int                     `json:"totalSites"`
	OccupiedSites int                     `json:"occupiedSites"`
	VacantSites   int                     `json:"vacantSites"`
	SitesByType   map[models.SiteType]int `json:"sitesByType"`
	OccupancyRate float64                 `json:"occupancyRate"`

	TotalClients int `json:"totalClients"`

	TotalActivities  int               `json:"totalActivities"`
	ActiveActivities int               `json:"activeActivities"`
	ExpiringSoon     []models.Activity `json:"expiringSoon"`

	MonthlyRunRate decimal.Decimal `json:"monthlyRunRate"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`

	Recent []models.Activity `json:"recentActivities"`

	// Backend and BackendRecent are the backend's own aggregate, omitted
	// when the backend does not serve them.
	Backend       *models.DashboardStats `json:"backend,omitempty"`
	BackendRecent []models.Activity      `json:"backendRecent,omitempty"`

	GeneratedAt time.Time `json:"generatedAt"`
}

type Dashboard struct {
	inv          *Inventory
	client       *api.Client
	cache        *cache.Cache
	now          func() time.Time
	ExpiringDays int
	RecentLimit  int
}

func NewDashboard(inv *Inventory, client *api.Client, c *cache.Cache) *Dashboard {
	return &Dashboard{
		inv:          inv,
		client:       client,
		cache:        c,
		now:          time.Now,
		ExpiringDays: DefaultExpiringDays,
		RecentLimit:  DefaultRecentLimit,
	}
}

// Summary loads the three lists concurrently and aggregates them as of now.
func (d *Dashboard) Summary(ctx context.Context) (Summary, error) {
	var (
		sites   []models.Site
		clients []models.Client
		acts    []models.Activity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { sites, err = d.inv.Sites.List(gctx); return })
	g.Go(func() (err error) { clients, err = d.inv.Clients.List(gctx); return })
	g.Go(func() (err error) { acts, err = d.inv.Activities.List(gctx); return })
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	s := Aggregate(sites, clients, acts, d.now(), d.ExpiringDays, d.RecentLimit)

	if d.client != nil {
		stats, err := cache.Get(ctx, d.cache, cache.DashboardStats, d.client.DashboardStats)
		switch {
		case err == nil:
			s.Backend = &stats
		case apperr.KindOf(err) == apperr.KindAuth:
			return Summary{}, err
		default:
			log.Printf("dashboard: backend stats unavailable: %v", err)
		}
		recent, err := cache.Get(ctx, d.cache, cache.DashboardRecent, func(ctx context.Context) ([]models.Activity, error) {
			return d.client.RecentActivities(ctx, d.RecentLimit)
		})
		if err == nil {
			s.BackendRecent = recent
		} else {
			log.Printf("dashboard: backend recent feed unavailable: %v", err)
		}
	}
	return s, nil
}

// Aggregate computes the summary of the given lists as of now. Sites without
// an occupant from the backend are matched against the active activities.
// Revenue sums use decimal arithmetic and are rounded to 2 places.
func Aggregate(sites []models.Site, clients []models.Client, acts []models.Activity, now time.Time, expiringDays, recent int) Summary {
	sites = derive.FillOccupancy(sites, acts, now)
	s := Summary{
		TotalSites:      len(sites),
		SitesByType:     make(map[models.SiteType]int, len(models.SiteTypes)),
		OccupancyRate:   derive.OccupancyRate(sites),
		TotalClients:    len(clients),
		TotalActivities: len(acts),
		ExpiringSoon:    derive.ExpiringWithin(acts, now, expiringDays),
		Recent:          derive.Recent(acts, recent),
		GeneratedAt:     now,
	}
	for _, t := range models.SiteTypes {
		s.SitesByType[t] = 0
	}
	for _, site := range sites {
		s.SitesByType[site.Type]++
		if site.Occupied() {
			s.OccupiedSites++
		}
	}
	s.VacantSites = s.TotalSites - s.OccupiedSites

	runRate := decimal.Zero
	total := decimal.Zero
	for _, a := range acts {
		total = total.Add(decimal.NewFromFloat(derive.ActivityRevenue(a, now)))
		if derive.IsActive(a, now) {
			s.ActiveActivities++
			runRate = runRate.Add(decimal.NewFromFloat(derive.Rate(a)))
		}
	}
	s.MonthlyRunRate = runRate.Round(2)
	s.TotalRevenue = total.Round(2)
	return s
}
