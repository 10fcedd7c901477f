package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diewo77/go-hoardings/internal/api/apitest"
	"github.com/diewo77/go-hoardings/internal/apperr"
	"github.com/diewo77/go-hoardings/internal/cache"
	"github.com/diewo77/go-hoardings/internal/filters"
	"github.com/diewo77/go-hoardings/internal/models"
)

func setup(t *testing.T) (*apitest.Backend, *Inventory, *cache.Cache) {
	t.Helper()
	b := apitest.New(t)
	opts := cache.DefaultOptions()
	opts.RetryBackoff = time.Millisecond
	c := cache.New(opts)
	return b, NewInventory(b.Client(nil), c), c
}

func ptr[T any](v T) *T { return &v }

func TestCreateSite_AppearsInList(t *testing.T) {
	b, inv, _ := setup(t)
	ctx := context.Background()

	sites, err := inv.Sites.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sites) != 0 {
		t.Fatalf("sites = %v", sites)
	}

	created, err := inv.Sites.Create(ctx, models.SiteInput{
		SiteNo: "S-01", Location: "MG Road", Type: models.SiteTypeHoarding, Size: "20x10",
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Fatal("created site has no id")
	}

	sites, err = inv.Sites.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sites) != 1 || sites[0].SiteNo != "S-01" {
		t.Fatalf("list after create = %+v", sites)
	}
	if got := b.Calls("GET /sites"); got != 2 {
		t.Fatalf("GET /sites calls = %d, want 2", got)
	}

	// Detail is served from the cache seeded by Create.
	if _, err := inv.Sites.Get(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	if got := b.Calls("GET /sites/" + created.ID); got != 0 {
		t.Fatalf("detail fetched %d times", got)
	}
}

func TestCreate_InvalidNeverReachesBackend(t *testing.T) {
	b, inv, _ := setup(t)
	_, err := inv.Sites.Create(context.Background(), models.SiteInput{SiteNo: "S 01!", Location: "MG", Type: "billboard"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
	fields := apperr.As(err).Fields
	for _, f := range []string{"siteNo", "location", "type"} {
		if fields[f] == "" {
			t.Errorf("missing violation on %s: %v", f, fields)
		}
	}
	if b.Calls("POST /sites") != 0 {
		t.Fatal("invalid payload was sent")
	}
}

func TestCreate_BackendFieldErrors(t *testing.T) {
	b, inv, _ := setup(t)
	b.SeedSite(models.Site{SiteNo: "S-01", Location: "MG Road", Type: models.SiteTypeHoarding})
	_, err := inv.Sites.Create(context.Background(), models.SiteInput{SiteNo: "S-01", Location: "Brigade Road", Type: models.SiteTypeUnipole})
	e := apperr.As(err)
	if e == nil || e.Kind != apperr.KindValidation || e.Fields["siteNo"] != "already_exists" {
		t.Fatalf("err = %v", err)
	}
}

func TestDeleteClient_DependencyKeepsItInList(t *testing.T) {
	b, inv, c := setup(t)
	ctx := context.Background()
	site := b.SeedSite(models.Site{SiteNo: "S-01", Location: "MG Road", Type: models.SiteTypeHoarding})
	client := b.SeedClient(models.Client{Name: "Acme"})
	b.SeedActivity(models.Activity{Action: models.ActionNew, SiteID: site.ID, ClientID: client.ID, StartDate: models.NewDate(2024, 1, 1)})

	if _, err := inv.Clients.List(ctx); err != nil {
		t.Fatal(err)
	}
	err := inv.Clients.Delete(ctx, client.ID)
	if !apperr.IsDependency(err) {
		t.Fatalf("err = %v, want dependency conflict", err)
	}
	if c.State(cache.List(cache.EntityClients, "")) != cache.StateFresh {
		t.Fatal("failed delete touched the list")
	}
	clients, err := inv.Clients.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(clients) != 1 || clients[0].ID != client.ID {
		t.Fatalf("clients = %+v", clients)
	}
}

func TestDelete_RemovesAndInvalidates(t *testing.T) {
	b, inv, c := setup(t)
	ctx := context.Background()
	client := b.SeedClient(models.Client{Name: "Acme"})
	if _, err := inv.Clients.Get(ctx, client.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := inv.Clients.List(ctx); err != nil {
		t.Fatal(err)
	}
	if err := inv.Clients.Delete(ctx, client.ID); err != nil {
		t.Fatal(err)
	}
	if c.State(cache.Detail(cache.EntityClients, client.ID)) != cache.StateAbsent {
		t.Fatal("detail kept")
	}
	clients, _ := inv.Clients.List(ctx)
	if len(clients) != 0 {
		t.Fatalf("clients = %+v", clients)
	}
}

func TestUpdate_CommitsServerValue(t *testing.T) {
	b, inv, c := setup(t)
	ctx := context.Background()
	site := b.SeedSite(models.Site{SiteNo: "S-01", Location: "MG Road", Type: models.SiteTypeHoarding})
	if _, err := inv.Sites.List(ctx); err != nil {
		t.Fatal(err)
	}

	got, err := inv.Sites.Update(ctx, site.ID, models.SiteUpdate{Location: "Brigade Road", Type: models.SiteTypeUnipole})
	if err != nil {
		t.Fatal(err)
	}
	if got.Location != "Brigade Road" || got.UpdatedAt.IsZero() {
		t.Fatalf("updated = %+v", got)
	}
	if c.State(cache.List(cache.EntitySites, "")) != cache.StateStale {
		t.Fatal("list not invalidated")
	}
	sites, _ := inv.Sites.List(ctx)
	if sites[0].Location != "Brigade Road" {
		t.Fatalf("list = %+v", sites)
	}
}

func TestUpdate_FailureRestoresSnapshot(t *testing.T) {
	b, inv, c := setup(t)
	ctx := context.Background()
	site := b.SeedSite(models.Site{SiteNo: "S-01", Location: "MG Road", Type: models.SiteTypeHoarding})
	before, err := inv.Sites.Get(ctx, site.ID)
	if err != nil {
		t.Fatal(err)
	}

	b.FailNext("PUT /sites/"+site.ID, 500, `{"message":"boom"}`)
	_, err = inv.Sites.Update(ctx, site.ID, models.SiteUpdate{Location: "Brigade Road", Type: models.SiteTypeHoarding})
	if !errors.Is(err, apperr.ErrServer) {
		t.Fatalf("err = %v", err)
	}
	v, ok := c.Peek(cache.Detail(cache.EntitySites, site.ID))
	if !ok || v.(models.Site).Location != before.Location {
		t.Fatalf("cached = %+v", v)
	}
	if b.Calls("PUT /sites/"+site.ID) != 1 {
		t.Fatal("writes must not be retried")
	}
}

func TestUpdateActivity_CrossFieldRules(t *testing.T) {
	b, inv, _ := setup(t)
	ctx := context.Background()
	site := b.SeedSite(models.Site{SiteNo: "S-01", Location: "MG Road", Type: models.SiteTypeHoarding})
	client := b.SeedClient(models.Client{Name: "Acme"})
	act := b.SeedActivity(models.Activity{Action: models.ActionNew, SiteID: site.ID, ClientID: client.ID, StartDate: models.NewDate(2024, 3, 1)})

	tests := []struct {
		name  string
		in    models.ActivityUpdate
		field string
		code  string
	}{
		{"end before start", models.ActivityUpdate{Action: models.ActionNew, StartDate: models.NewDate(2024, 3, 1), EndDate: ptr(models.NewDate(2024, 2, 1))}, "endDate", "must_be_after_start"},
		{"shift needs previous client", models.ActivityUpdate{Action: models.ActionShift, StartDate: models.NewDate(2024, 3, 1)}, "previousClientId", "required"},
		{"rate out of range", models.ActivityUpdate{Action: models.ActionNew, StartDate: models.NewDate(2024, 3, 1), RatePerMonth: ptr(-5.0)}, "ratePerMonth", "out_of_range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inv.Activities.Update(ctx, act.ID, tt.in)
			e := apperr.As(err)
			if e == nil || e.Fields[tt.field] != tt.code {
				t.Fatalf("err = %v, want %s=%s", err, tt.field, tt.code)
			}
		})
	}
	if b.Calls("PUT /activities/"+act.ID) != 0 {
		t.Fatal("invalid update was sent")
	}
}

func TestCreateActivity_InvalidatesSitesAndDashboard(t *testing.T) {
	b, inv, c := setup(t)
	ctx := context.Background()
	site := b.SeedSite(models.Site{SiteNo: "S-01", Location: "MG Road", Type: models.SiteTypeHoarding})
	client := b.SeedClient(models.Client{Name: "Acme"})
	sites, _ := inv.Sites.List(ctx)
	if sites[0].Occupied() {
		t.Fatal("site should start vacant")
	}
	c.Set(cache.DashboardStats, models.DashboardStats{})

	today := models.DateOf(time.Now())
	if _, err := inv.Activities.Create(ctx, models.ActivityInput{
		Action: models.ActionNew, SiteID: site.ID, ClientID: client.ID, StartDate: today, RatePerMonth: ptr(50000.0),
	}); err != nil {
		t.Fatal(err)
	}
	if c.State(cache.DashboardStats) != cache.StateStale {
		t.Fatal("dashboard not invalidated")
	}
	sites, _ = inv.Sites.List(ctx)
	if !sites[0].Occupied() || *sites[0].ActiveClientID != client.ID {
		t.Fatalf("site after booking = %+v", sites[0])
	}
}

func TestPages(t *testing.T) {
	b, inv, _ := setup(t)
	ctx := context.Background()
	b.SeedSite(models.Site{SiteNo: "S-02", Location: "MG Road East", Type: models.SiteTypeHoarding})
	b.SeedSite(models.Site{SiteNo: "S-01", Location: "MG Road", Type: models.SiteTypeUnipole})
	b.SeedSite(models.Site{SiteNo: "S-03", Location: "Brigade Road", Type: models.SiteTypeHoarding})

	p, err := inv.SitePage(ctx, filters.Defaults(filters.Sites, 10).Merge(filters.Patch{Search: ptr("mg"), Type: ptr("hoarding")}))
	if err != nil {
		t.Fatal(err)
	}
	if p.Total != 1 || p.Items[0].SiteNo != "S-02" {
		t.Fatalf("page = %+v", p)
	}
	if b.Calls("GET /sites/search") != 1 {
		t.Fatal("search not delegated to the backend")
	}

	p, _ = inv.SitePage(ctx, filters.Defaults(filters.Sites, 2))
	if p.Total != 3 || p.Pages != 2 || p.Items[0].SiteNo != "S-01" {
		t.Fatalf("default page = %+v", p)
	}
}

func TestSitePage_StatusWithoutBackendOccupancy(t *testing.T) {
	b, inv, _ := setup(t)
	ctx := context.Background()
	b.OmitOccupancy()
	s1 := b.SeedSite(models.Site{SiteNo: "S-01", Location: "MG Road", Type: models.SiteTypeHoarding})
	b.SeedSite(models.Site{SiteNo: "S-02", Location: "MG Road", Type: models.SiteTypeHoarding})
	cl := b.SeedClient(models.Client{Name: "Acme"})
	b.SeedActivity(models.Activity{Action: models.ActionNew, SiteID: s1.ID, ClientID: cl.ID,
		StartDate: models.DateOf(time.Now().AddDate(0, -1, 0))})

	p, err := inv.SitePage(ctx, filters.Defaults(filters.Sites, 10).Merge(filters.Patch{Status: ptr(filters.StatusOccupied)}))
	if err != nil {
		t.Fatal(err)
	}
	if p.Total != 1 || p.Items[0].ID != s1.ID {
		t.Fatalf("occupied page = %+v", p)
	}
	p, _ = inv.SitePage(ctx, filters.Defaults(filters.Sites, 10).Merge(filters.Patch{Status: ptr(filters.StatusVacant)}))
	if p.Total != 1 || p.Items[0].SiteNo != "S-02" {
		t.Fatalf("vacant page = %+v", p)
	}
}

func TestSiteHistory(t *testing.T) {
	b, inv, _ := setup(t)
	ctx := context.Background()
	s1 := b.SeedSite(models.Site{SiteNo: "S-01", Location: "MG Road", Type: models.SiteTypeHoarding})
	s2 := b.SeedSite(models.Site{SiteNo: "S-02", Location: "MG Road", Type: models.SiteTypeHoarding})
	cl := b.SeedClient(models.Client{Name: "Acme"})
	b.SeedActivity(models.Activity{ID: "a1", Action: models.ActionNew, SiteID: s1.ID, ClientID: cl.ID, StartDate: models.NewDate(2023, 1, 1)})
	b.SeedActivity(models.Activity{ID: "a2", Action: models.ActionFlexChange, SiteID: s1.ID, ClientID: cl.ID, StartDate: models.NewDate(2024, 1, 1)})
	b.SeedActivity(models.Activity{ID: "a3", Action: models.ActionNew, SiteID: s2.ID, ClientID: cl.ID, StartDate: models.NewDate(2024, 1, 1)})

	acts, err := inv.SiteHistory(ctx, s1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(acts) != 2 || acts[0].ID != "a2" || acts[1].ID != "a1" {
		t.Fatalf("history = %+v", acts)
	}
	if _, err := inv.SiteHistory(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}
