package handlers

import (
	"net/http"

	"github.com/diewo77/go-hoardings/httpx"
	"github.com/diewo77/go-hoardings/internal/services"
)

type DashboardHandler struct {
	dashboard *services.Dashboard
}

func NewDashboardHandler(d *services.Dashboard) *DashboardHandler {
	return &DashboardHandler{dashboard: d}
}

func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.dashboard.Summary(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}
