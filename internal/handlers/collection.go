package handlers

import (
	"net/http"

	"github.com/diewo77/go-hoardings/httpx"
	"github.com/diewo77/go-hoardings/internal/middleware"
	"github.com/diewo77/go-hoardings/internal/services"
)

// collectionHandler serves the item routes shared by every inventory entity.
// noun prefixes the flash codes ("site" gives "site_created").
type collectionHandler[T, C, U any] struct {
	coll *services.Collection[T, C, U]
	noun string
}

func (h collectionHandler[T, C, U]) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.coll.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h collectionHandler[T, C, U]) Create(w http.ResponseWriter, r *http.Request) {
	var in C
	if err := httpx.Decode(w, r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.coll.Create(r.Context(), in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	middleware.Flash(w, r, h.noun+"_created")
	httpx.JSON(w, http.StatusCreated, v)
}

func (h collectionHandler[T, C, U]) Update(w http.ResponseWriter, r *http.Request) {
	var in U
	if err := httpx.Decode(w, r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.coll.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	middleware.Flash(w, r, h.noun+"_updated")
	httpx.JSON(w, http.StatusOK, v)
}

func (h collectionHandler[T, C, U]) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.coll.Delete(r.Context(), r.PathValue("id")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	middleware.Flash(w, r, h.noun+"_deleted")
	w.WriteHeader(http.StatusNoContent)
}
