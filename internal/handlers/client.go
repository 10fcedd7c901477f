package handlers

import (
	"net/http"

	"github.com/diewo77/go-hoardings/httpx"
	"github.com/diewo77/go-hoardings/internal/filters"
	"github.com/diewo77/go-hoardings/internal/models"
	"github.com/diewo77/go-hoardings/internal/services"
)

type ClientHandler struct {
	collectionHandler[models.Client, models.ClientInput, models.ClientUpdate]
	inv     *services.Inventory
	filters *filters.Store
}

func NewClientHandler(inv *services.Inventory, f *filters.Store) *ClientHandler {
	return &ClientHandler{
		collectionHandler: collectionHandler[models.Client, models.ClientInput, models.ClientUpdate]{coll: inv.Clients, noun: "client"},
		inv:               inv,
		filters:           f,
	}
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	c, err := listCriteria(r.Context(), h.filters, filters.Clients, r.URL.Query())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	page, err := h.inv.ClientPage(r.Context(), c)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}
