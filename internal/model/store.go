package model

import "time"

// Store kinds. A dedicated database per tenant or a schema inside a
// shared physical database; the choice is recorded per registration, not
// encoded in parallel code paths.
const (
	StoreKindDatabase = "database"
	StoreKindSchema   = "schema"
)

// SharedStoreID is the reserved registration id of the shared store that
// holds tenant metadata, identity, and reservations.
const SharedStoreID = "shared"

// StoreRegistration maps a tenant's logical store id to its physical
// location and provisioning state. At most one registration exists per
// store id; state transitions are monotonic except failed -> pending on
// retry.
type StoreRegistration struct {
	StoreID      string    `json:"store_id" db:"store_id"`
	Kind         string    `json:"kind" db:"kind"`
	DatabaseName string    `json:"database_name" db:"database_name"`
	SchemaName   string    `json:"schema_name,omitempty" db:"schema_name"`
	State        string    `json:"state" db:"state"`
	LastError    *string   `json:"last_error,omitempty" db:"last_error"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Shared reports whether the registration is the shared store.
func (r *StoreRegistration) Shared() bool {
	return r.StoreID == SharedStoreID
}

// Reservation is the durable claim on a subdomain taken at the start of a
// provisioning attempt. The conditional insert on this table is the sole
// defense against two concurrent attempts provisioning the same subdomain.
type Reservation struct {
	Subdomain string    `json:"subdomain" db:"subdomain"`
	State     string    `json:"state" db:"state"`
	StoreID   *string   `json:"store_id,omitempty" db:"store_id"`
	LastError *string   `json:"last_error,omitempty" db:"last_error"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
