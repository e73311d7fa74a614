package handler

import (
	"context"
	"net/http"

	"github.com/Elhussin/opticsSass/internal/api/middleware"
	"github.com/Elhussin/opticsSass/internal/api/response"
	"github.com/Elhussin/opticsSass/internal/core"
	"github.com/Elhussin/opticsSass/internal/model"
	"github.com/Elhussin/opticsSass/internal/router"
)

// StoreRouter hands out tenant-tagged store handles. Satisfied by
// *router.Router.
type StoreRouter interface {
	Route(ctx context.Context, tctx model.TenantContext, op router.Op) (*router.StoreHandle, error)
}

// Storefront handles the tenant-facing endpoints behind host resolution.
type Storefront struct {
	tenants *core.TenantService
	router  StoreRouter
}

func NewStorefront(tenants *core.TenantService, r StoreRouter) *Storefront {
	return &Storefront{tenants: tenants, router: r}
}

// Current returns the resolved tenant's record.
func (h *Storefront) Current(w http.ResponseWriter, r *http.Request) {
	tctx, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		response.WriteError(w, http.StatusNotFound, "unknown store")
		return
	}

	tenant, err := h.tenants.GetByID(r.Context(), tctx.TenantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, tenant)
}

// Ping routes to the tenant's store and runs a trivial query, proving
// the whole resolve-and-route path end to end.
func (h *Storefront) Ping(w http.ResponseWriter, r *http.Request) {
	tctx, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		response.WriteError(w, http.StatusNotFound, "unknown store")
		return
	}

	handle, err := h.router.Route(r.Context(), tctx, router.OpRead)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	row, err := handle.QueryRow(r.Context(), tctx, "SELECT 1")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var one int
	if err := row.Scan(&one); err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"store_id": handle.StoreID(),
	})
}
