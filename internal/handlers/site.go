package handlers

import (
	"net/http"

	"github.com/diewo77/go-hoardings/httpx"
	"github.com/diewo77/go-hoardings/internal/filters"
	"github.com/diewo77/go-hoardings/internal/models"
	"github.com/diewo77/go-hoardings/internal/services"
)

type SiteHandler struct {
	collectionHandler[models.Site, models.SiteInput, models.SiteUpdate]
	inv     *services.Inventory
	filters *filters.Store
}

func NewSiteHandler(inv *services.Inventory, f *filters.Store) *SiteHandler {
	return &SiteHandler{
		collectionHandler: collectionHandler[models.Site, models.SiteInput, models.SiteUpdate]{coll: inv.Sites, noun: "site"},
		inv:               inv,
		filters:           f,
	}
}

// List returns one page of sites under the saved criteria.
func (h *SiteHandler) List(w http.ResponseWriter, r *http.Request) {
	c, err := listCriteria(r.Context(), h.filters, filters.Sites, r.URL.Query())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	page, err := h.inv.SitePage(r.Context(), c)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

// History lists the activities booked on a site, newest first.
func (h *SiteHandler) History(w http.ResponseWriter, r *http.Request) {
	acts, err := h.inv.SiteHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, acts)
}
