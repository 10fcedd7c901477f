package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/diewo77/go-hoardings/httpx"
	"github.com/diewo77/go-hoardings/internal/filters"
	"github.com/diewo77/go-hoardings/internal/models"
	"github.com/diewo77/go-hoardings/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ActivityHandler struct {
	collectionHandler[models.Activity, models.ActivityInput, models.ActivityUpdate]
	inv      *services.Inventory
	filters  *filters.Store
	exporter *services.Exporter
	now      func() time.Time
}

func NewActivityHandler(inv *services.Inventory, f *filters.Store, e *services.Exporter) *ActivityHandler {
	return &ActivityHandler{
		collectionHandler: collectionHandler[models.Activity, models.ActivityInput, models.ActivityUpdate]{coll: inv.Activities, noun: "activity"},
		inv:               inv,
		filters:           f,
		exporter:          e,
		now:               time.Now,
	}
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	c, err := listCriteria(r.Context(), h.filters, filters.Activities, r.URL.Query())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	page, err := h.inv.ActivityPage(r.Context(), c)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

// Export streams every activity matching the list criteria as a workbook.
func (h *ActivityHandler) Export(w http.ResponseWriter, r *http.Request) {
	c, err := listCriteria(r.Context(), h.filters, filters.Activities, r.URL.Query())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	f, err := h.exporter.Activities(r.Context(), c)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	defer f.Close()

	name := fmt.Sprintf("activities-%s.xlsx", h.now().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	if err := f.Write(w); err != nil {
		log.Printf("export activities: %v", err)
	}
}
