package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Elhussin/opticsSass/internal/api/request"
	"github.com/Elhussin/opticsSass/internal/api/response"
	"github.com/Elhussin/opticsSass/internal/core"
)

// Store handles the administrative store catalog endpoints.
type Store struct {
	svc         *core.StoreCatalogService
	provisioner Provisioner
}

func NewStore(svc *core.StoreCatalogService, provisioner Provisioner) *Store {
	return &Store{svc: svc, provisioner: provisioner}
}

// List lists store registrations, optionally filtered by state.
func (h *Store) List(w http.ResponseWriter, r *http.Request) {
	params := request.ParseListParams(r, "created_at")

	stores, hasMore, err := h.svc.List(r.Context(), params)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(stores) > 0 {
		nextCursor = stores[len(stores)-1].StoreID
	}
	response.WritePaginated(w, http.StatusOK, stores, nextCursor, hasMore)
}

// Get retrieves a store registration.
func (h *Store) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	store, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, store)
}

// Retry re-runs migration and publication for a failed store and blocks
// until the store is ready again or the retry fails.
func (h *Store) Retry(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tenant, err := h.provisioner.RetryStore(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, tenant)
}
