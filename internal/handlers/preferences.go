package handlers

import (
	"net/http"

	"github.com/diewo77/go-hoardings/httpx"
	"github.com/diewo77/go-hoardings/internal/prefs"
)

type PreferencesHandler struct {
	store *prefs.Store
}

func NewPreferencesHandler(s *prefs.Store) *PreferencesHandler {
	return &PreferencesHandler{store: s}
}

func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Load(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *PreferencesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch prefs.Patch
	if err := httpx.Decode(w, r, &patch); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	p, err := h.store.Update(r.Context(), patch)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}
