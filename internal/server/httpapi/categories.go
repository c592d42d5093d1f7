package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type categoryRequest struct {
	Name string `json:"name"`
}

func (a *API) listCategories(w http.ResponseWriter, r *http.Request) {
	list, err := a.catalog.List(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Berhasil mengakses data sertifikat kategori", viewCategories(list))
}

func (a *API) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	c, err := a.catalog.Create(r.Context(), req.Name)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "Added category successful", viewCategory(c))
}

func (a *API) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	c, err := a.catalog.Update(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Updated category successful", viewCategory(c))
}

func (a *API) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := a.catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
