package request

import "time"

// ProvisionTenant is the signup payload. The subdomain is the tenant's
// permanent address and must be a valid slug.
type ProvisionTenant struct {
	Name          string `json:"name" validate:"required"`
	Subdomain     string `json:"subdomain" validate:"required,slug"`
	Plan          string `json:"plan" validate:"required,oneof=basic premium enterprise"`
	StoreKind     string `json:"store_kind" validate:"omitempty,oneof=database schema"`
	AdminEmail    string `json:"admin_email" validate:"required,email"`
	AdminPassword string `json:"admin_password" validate:"required,min=10"`
}

type UpdateSubscription struct {
	Plan               string     `json:"plan" validate:"omitempty,oneof=basic premium enterprise"`
	Status             string     `json:"status" validate:"omitempty,oneof=trial active past_due cancelled"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at"`
}
