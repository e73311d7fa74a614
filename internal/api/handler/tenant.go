package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Elhussin/opticsSass/internal/api/request"
	"github.com/Elhussin/opticsSass/internal/api/response"
	"github.com/Elhussin/opticsSass/internal/core"
	"github.com/Elhussin/opticsSass/internal/model"
)

// Provisioner starts provisioning runs. Satisfied by
// *core.ProvisionerService.
type Provisioner interface {
	Provision(ctx context.Context, params model.ProvisionParams) (*model.Tenant, error)
	RetryStore(ctx context.Context, storeID string) (*model.Tenant, error)
}

// TenantCache keeps cached registry entries in step with tenant writes.
// Satisfied by *registry.Registry.
type TenantCache interface {
	Refresh(ctx context.Context, tenant *model.Tenant)
	Invalidate(ctx context.Context, subdomain string)
}

// Tenant handles the administrative tenant endpoints.
type Tenant struct {
	svc         *core.TenantService
	provisioner Provisioner
	cache       TenantCache
}

func NewTenant(svc *core.TenantService, provisioner Provisioner, cache TenantCache) *Tenant {
	return &Tenant{svc: svc, provisioner: provisioner, cache: cache}
}

// List lists tenants with search, status filter, and cursor pagination.
func (h *Tenant) List(w http.ResponseWriter, r *http.Request) {
	params := request.ParseListParams(r, "created_at")

	tenants, hasMore, err := h.svc.List(r.Context(), params)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(tenants) > 0 {
		nextCursor = tenants[len(tenants)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, tenants, nextCursor, hasMore)
}

// Get retrieves a tenant by ID.
func (h *Tenant) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tenant, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, tenant)
}

// Provision runs the full signup flow and blocks until the tenant is
// published or provisioning fails.
func (h *Tenant) Provision(w http.ResponseWriter, r *http.Request) {
	var req request.ProvisionTenant
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	storeKind := req.StoreKind
	if storeKind == "" {
		storeKind = model.StoreKindDatabase
	}

	tenant, err := h.provisioner.Provision(r.Context(), model.ProvisionParams{
		Subdomain:     req.Subdomain,
		Name:          req.Name,
		Plan:          req.Plan,
		StoreKind:     storeKind,
		AdminEmail:    req.AdminEmail,
		AdminPassword: req.AdminPassword,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, tenant)
}

// UpdateSubscription changes a tenant's plan or subscription window and
// refreshes the cached registry entry.
func (h *Tenant) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateSubscription
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tenant, err := h.svc.UpdateSubscription(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.cache.Refresh(r.Context(), tenant)
	response.WriteJSON(w, http.StatusOK, tenant)
}

// Suspend blocks a tenant from resolving. The cache entry is dropped so
// the suspension takes effect on the next request, not after TTL expiry.
func (h *Tenant) Suspend(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tenant, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.svc.Suspend(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	h.cache.Invalidate(r.Context(), tenant.Subdomain)
	w.WriteHeader(http.StatusNoContent)
}

// Unsuspend restores a suspended tenant.
func (h *Tenant) Unsuspend(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Unsuspend(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	tenant, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.cache.Refresh(r.Context(), tenant)
	response.WriteJSON(w, http.StatusOK, tenant)
}
