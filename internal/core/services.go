package core

import (
	temporalclient "go.temporal.io/sdk/client"
)

type Services struct {
	Tenant       *TenantService
	Membership   *MembershipService
	StoreCatalog *StoreCatalogService
	Reservation  *ReservationService
	Provisioner  *ProvisionerService
	APIKey       *APIKeyService
}

func NewServices(db DB, tc temporalclient.Client) *Services {
	return &Services{
		Tenant:       NewTenantService(db),
		Membership:   NewMembershipService(db),
		StoreCatalog: NewStoreCatalogService(db),
		Reservation:  NewReservationService(db),
		Provisioner:  NewProvisionerService(tc),
		APIKey:       NewAPIKeyService(db),
	}
}
