package model

import (
	"errors"
	"fmt"
)

// Provisioning stages, used in ProvisioningError and reported back to the
// administrative caller for operator diagnosis.
const (
	StageReserving     = "reserving"
	StageCreatingStore = "creating_store"
	StageMigrating     = "migrating"
	StageCreatingAdmin = "creating_admin"
	StagePublishing    = "publishing"
)

// Application error types crossing the workflow boundary.
const (
	ErrTypeDuplicateProvisioning = "DuplicateProvisioning"
	ErrTypeProvisioningFailed    = "ProvisioningFailed"
)

// ProvisionParams is the input to a tenant provisioning run.
type ProvisionParams struct {
	Subdomain     string `json:"subdomain"`
	Name          string `json:"name"`
	Plan          string `json:"plan"`
	StoreKind     string `json:"store_kind"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`
}

// ProvisionFailureDetails travels as application error details so the
// caller can surface the failed stage and orphaned store id.
type ProvisionFailureDetails struct {
	Stage   string `json:"stage"`
	StoreID string `json:"store_id,omitempty"`
}

// ErrDuplicateProvisioning is returned when a provisioning attempt loses
// the reservation race: another attempt for the same subdomain is in
// flight or already completed.
var ErrDuplicateProvisioning = errors.New("subdomain already reserved")

// ProvisioningError is the terminal failure of one provisioning attempt.
// It carries the stage and the allocated store id (if any) so an operator
// or cleanup job can identify and reclaim orphaned resources. Connection
// descriptors and credentials are never included.
type ProvisioningError struct {
	Subdomain string
	Stage     string
	StoreID   string
	Cause     error
}

func (e *ProvisioningError) Error() string {
	if e.StoreID != "" {
		return fmt.Sprintf("provisioning %s failed at %s (store %s): %v", e.Subdomain, e.Stage, e.StoreID, e.Cause)
	}
	return fmt.Sprintf("provisioning %s failed at %s: %v", e.Subdomain, e.Stage, e.Cause)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Cause
}
