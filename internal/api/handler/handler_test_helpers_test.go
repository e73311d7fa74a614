package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi/v5"

	mw "github.com/Elhussin/opticsSass/internal/api/middleware"
	"github.com/Elhussin/opticsSass/internal/model"
)

// newRequest creates a new HTTP request with an optional JSON body.
func newRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// withChiURLParam adds a chi URL parameter to the request context.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withTenantContext stores a resolved tenant on the request.
func withTenantContext(r *http.Request, tctx model.TenantContext) *http.Request {
	return r.WithContext(mw.WithTenant(r.Context(), tctx))
}

// decodeErrorResponse parses the JSON error response body into a map.
func decodeErrorResponse(rec *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	return body
}

func acmeTenant() *model.Tenant {
	limits, features := model.PlanDefaults("premium")
	return &model.Tenant{
		ID:                 "tenant-1",
		Name:               "Acme Optics",
		Subdomain:          "acme",
		StoreID:            "acme-store-a1b2c3d4e5",
		Plan:               "premium",
		Limits:             limits,
		Features:           features,
		SubscriptionStatus: model.SubscriptionActive,
		Active:             true,
	}
}

// scanTenant copies a tenant into the scan destinations used by the
// tenant row queries.
func scanTenant(t *model.Tenant, dest ...any) error {
	*dest[0].(*string) = t.ID
	*dest[1].(*string) = t.Name
	*dest[2].(*string) = t.Subdomain
	*dest[3].(*string) = t.StoreID
	*dest[4].(*string) = t.Plan
	*dest[5].(*int) = t.Limits.MaxUsers
	*dest[6].(*int) = t.Limits.MaxProducts
	*dest[7].(*int) = t.Limits.MaxStorageMB
	*dest[8].(*model.FeatureFlags) = t.Features
	*dest[9].(*string) = t.SubscriptionStatus
	*dest[10].(**time.Time) = t.TrialEndsAt
	*dest[11].(**time.Time) = t.SubscriptionEndsAt
	*dest[12].(*bool) = t.Active
	*dest[13].(*time.Time) = t.CreatedAt
	*dest[14].(*time.Time) = t.UpdatedAt
	return nil
}
