package model

import "time"

// Limits holds the per-tenant resource caps attached to a plan.
type Limits struct {
	MaxUsers     int `json:"max_users" db:"max_users"`
	MaxProducts  int `json:"max_products" db:"max_products"`
	MaxStorageMB int `json:"max_storage_mb" db:"max_storage_mb"`
}

// FeatureFlags maps a feature name to whether it is enabled for a tenant.
type FeatureFlags map[string]bool

type Tenant struct {
	ID                 string       `json:"id" db:"id"`
	Name               string       `json:"name" db:"name"`
	Subdomain          string       `json:"subdomain" db:"subdomain"`
	StoreID            string       `json:"store_id" db:"store_id"`
	Plan               string       `json:"plan" db:"plan"`
	Limits             Limits       `json:"limits"`
	Features           FeatureFlags `json:"features" db:"features"`
	SubscriptionStatus string       `json:"subscription_status" db:"subscription_status"`
	TrialEndsAt        *time.Time   `json:"trial_ends_at,omitempty" db:"trial_ends_at"`
	SubscriptionEndsAt *time.Time   `json:"subscription_ends_at,omitempty" db:"subscription_ends_at"`
	Active             bool         `json:"active" db:"active"`
	CreatedAt          time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at" db:"updated_at"`
}

// HasFeature reports whether a feature flag is enabled for the tenant.
func (t *Tenant) HasFeature(name string) bool {
	return t.Features[name]
}

// Accessible reports whether the tenant may serve requests at the given
// instant: it must be active, its subscription must not be cancelled or
// suspended, and neither the trial window nor the subscription window may
// have lapsed. The cancelled/suspended check wins over the active flag.
func (t *Tenant) Accessible(now time.Time) bool {
	if !t.Active {
		return false
	}
	switch t.SubscriptionStatus {
	case SubscriptionCancelled, SubscriptionSuspended:
		return false
	}
	if t.SubscriptionStatus == SubscriptionTrial && t.TrialEndsAt != nil && now.After(*t.TrialEndsAt) {
		return false
	}
	if t.SubscriptionEndsAt != nil && now.After(*t.SubscriptionEndsAt) {
		return false
	}
	return true
}

// PlanDefaults returns the limits and feature set assigned to new tenants
// on the given plan.
func PlanDefaults(plan string) (Limits, FeatureFlags) {
	switch plan {
	case "premium":
		return Limits{MaxUsers: 25, MaxProducts: 10000, MaxStorageMB: 2048},
			FeatureFlags{"reports": true, "multi_branch": true}
	case "enterprise":
		return Limits{MaxUsers: 200, MaxProducts: 100000, MaxStorageMB: 20480},
			FeatureFlags{"reports": true, "multi_branch": true, "api_access": true}
	default: // basic
		return Limits{MaxUsers: 5, MaxProducts: 1000, MaxStorageMB: 100},
			FeatureFlags{}
	}
}
