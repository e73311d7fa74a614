package router

import (
	"errors"
	"fmt"

	"github.com/Elhussin/opticsSass/internal/model"
)

// ErrMigrationScopeViolation means a migration domain was aimed at a
// store class it must never touch.
var ErrMigrationScopeViolation = errors.New("migration scope violation")

// Migration domains. Tenant domains carry per-tenant business tables;
// shared domains carry platform metadata and identity.
const (
	DomainCatalog   = "catalog"
	DomainInventory = "inventory"
	DomainSales     = "sales"
	DomainCustomers = "customers"
	DomainRegistry  = "registry"
	DomainIdentity  = "identity"
)

var tenantDomains = map[string]bool{
	DomainCatalog:   true,
	DomainInventory: true,
	DomainSales:     true,
	DomainCustomers: true,
}

var sharedDomains = map[string]bool{
	DomainRegistry: true,
	DomainIdentity: true,
}

// CheckMigrationTarget enforces the migration allow-list: tenant domains
// may only run against tenant stores, shared domains only against the
// shared store. Unknown domains are rejected outright.
func CheckMigrationTarget(domain, storeID string) error {
	shared := storeID == model.SharedStoreID
	switch {
	case tenantDomains[domain]:
		if shared {
			return fmt.Errorf("%w: tenant domain %s aimed at shared store", ErrMigrationScopeViolation, domain)
		}
		return nil
	case sharedDomains[domain]:
		if !shared {
			return fmt.Errorf("%w: shared domain %s aimed at tenant store %s", ErrMigrationScopeViolation, domain, storeID)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown migration domain %s", ErrMigrationScopeViolation, domain)
	}
}
