package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/Elhussin/opticsSass/internal/api/response"
	"github.com/Elhussin/opticsSass/internal/model"
	"github.com/Elhussin/opticsSass/internal/resolver"
)

const tenantContextKey contextKey = "tenant_context"

// TenantResolver maps a request host to a tenant context.
type TenantResolver interface {
	Resolve(ctx context.Context, host string) (model.TenantContext, error)
}

// ResolveTenant returns a middleware that resolves the request host to a
// tenant and stores the tenant context on the request. Requests whose
// host names no tenant are rejected here; handlers behind this
// middleware can rely on TenantFromContext returning a valid context.
func ResolveTenant(res TenantResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tctx, err := res.Resolve(r.Context(), r.Host)
			if err != nil {
				switch {
				case errors.Is(err, resolver.ErrNoTenant), errors.Is(err, resolver.ErrUnknownTenant):
					response.WriteError(w, http.StatusNotFound, "unknown store")
				case errors.Is(err, resolver.ErrTenantUnavailable):
					response.WriteError(w, http.StatusForbidden, "store unavailable")
				default:
					response.WriteError(w, http.StatusInternalServerError, "tenant resolution failed")
				}
				return
			}

			ctx := context.WithValue(r.Context(), tenantContextKey, tctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantFromContext returns the tenant context stored by ResolveTenant.
// The second return is false outside the middleware.
func TenantFromContext(ctx context.Context) (model.TenantContext, bool) {
	tctx, ok := ctx.Value(tenantContextKey).(model.TenantContext)
	return tctx, ok
}

// WithTenant stores a tenant context on a context. Intended for tests
// and background jobs that bypass the HTTP middleware.
func WithTenant(ctx context.Context, tctx model.TenantContext) context.Context {
	return context.WithValue(ctx, tenantContextKey, tctx)
}
