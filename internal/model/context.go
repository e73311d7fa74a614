package model

// TenantContext is the immutable, request-scoped identity of a resolved
// tenant. It is created by the resolver once per request and passed
// explicitly down the call chain; it is never stored in process-wide
// state. The feature set is copied at construction so later mutations of
// the source tenant record cannot leak into an in-flight request.
type TenantContext struct {
	TenantID  string `json:"tenant_id"`
	Subdomain string `json:"subdomain"`
	StoreID   string `json:"store_id"`
	Plan      string `json:"plan"`
	Limits    Limits `json:"limits"`

	features FeatureFlags
}

// NewTenantContext builds a request-scoped context from a resolved tenant.
func NewTenantContext(t *Tenant) TenantContext {
	features := make(FeatureFlags, len(t.Features))
	for name, enabled := range t.Features {
		features[name] = enabled
	}
	return TenantContext{
		TenantID:  t.ID,
		Subdomain: t.Subdomain,
		StoreID:   t.StoreID,
		Plan:      t.Plan,
		Limits:    t.Limits,
		features:  features,
	}
}

// HasFeature reports whether a feature flag was enabled for the tenant at
// resolution time.
func (c TenantContext) HasFeature(name string) bool {
	return c.features[name]
}

// Zero reports whether the context carries no resolved tenant.
func (c TenantContext) Zero() bool {
	return c.TenantID == ""
}
