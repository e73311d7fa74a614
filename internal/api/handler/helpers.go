package handler

import (
	"errors"
	"net/http"

	"github.com/Elhussin/opticsSass/internal/api/response"
	"github.com/Elhussin/opticsSass/internal/core"
	"github.com/Elhussin/opticsSass/internal/model"
	"github.com/Elhussin/opticsSass/internal/router"
)

// writeServiceError maps domain errors to HTTP status codes. Anything
// unrecognized becomes a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var provErr *model.ProvisioningError
	switch {
	case errors.Is(err, core.ErrTenantNotFound), errors.Is(err, core.ErrStoreNotFound):
		response.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrDuplicateProvisioning):
		response.WriteError(w, http.StatusConflict, "subdomain already taken or being provisioned")
	case errors.As(err, &provErr):
		response.WriteJSON(w, http.StatusBadGateway, map[string]string{
			"error":    "provisioning failed",
			"stage":    provErr.Stage,
			"store_id": provErr.StoreID,
		})
	case errors.Is(err, router.ErrStoreUnavailable):
		response.WriteError(w, http.StatusServiceUnavailable, "store unavailable")
	default:
		response.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
