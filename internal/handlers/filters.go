package handlers

import (
	"net/http"

	"github.com/diewo77/go-hoardings/httpx"
	"github.com/diewo77/go-hoardings/internal/apperr"
	"github.com/diewo77/go-hoardings/internal/filters"
)

// FilterHandler exposes the saved list criteria.
type FilterHandler struct {
	store *filters.Store
}

func NewFilterHandler(s *filters.Store) *FilterHandler {
	return &FilterHandler{store: s}
}

func entityOf(r *http.Request) (filters.Entity, error) {
	e := filters.Entity(r.PathValue("entity"))
	if !e.Valid() {
		return "", apperr.NotFound("list", string(e))
	}
	return e, nil
}

func (h *FilterHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := entityOf(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.store.Get(r.Context(), e))
}

// Update merges a partial patch; omitted fields keep their value.
func (h *FilterHandler) Update(w http.ResponseWriter, r *http.Request) {
	e, err := entityOf(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var p filters.Patch
	if err := httpx.Decode(w, r, &p); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	c, err := h.store.Update(r.Context(), e, p)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *FilterHandler) Reset(w http.ResponseWriter, r *http.Request) {
	e, err := entityOf(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.store.Reset(r.Context(), e))
}
