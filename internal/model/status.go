package model

// Store registration states.
const (
	StorePending      = "pending"
	StoreProvisioning = "provisioning"
	StoreReady        = "ready"
	StoreFailed       = "failed"
)

// Subscription statuses.
const (
	SubscriptionTrial     = "trial"
	SubscriptionActive    = "active"
	SubscriptionPastDue   = "past_due"
	SubscriptionCancelled = "cancelled"
	SubscriptionSuspended = "suspended"
)

// Membership roles.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

// Reservation states. A provisioning attempt walks these in order;
// failed is reachable from any non-terminal state.
const (
	ReservationReserving     = "reserving"
	ReservationCreatingStore = "creating_store"
	ReservationMigrating     = "migrating"
	ReservationCreatingAdmin = "creating_admin"
	ReservationPublishing    = "publishing"
	ReservationDone          = "done"
	ReservationFailed        = "failed"
)
