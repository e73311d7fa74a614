package activity

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"go.temporal.io/sdk/temporal"
	"golang.org/x/crypto/bcrypt"

	"github.com/Elhussin/opticsSass/internal/core"
	"github.com/Elhussin/opticsSass/internal/db"
	"github.com/Elhussin/opticsSass/internal/model"
	"github.com/Elhussin/opticsSass/internal/platform"
	"github.com/Elhussin/opticsSass/internal/router"
)

// Reservations is the reservation surface the activities need.
// Satisfied by *core.ReservationService.
type Reservations interface {
	Reserve(ctx context.Context, subdomain string) error
	SetStage(ctx context.Context, subdomain, stage string) error
	AttachStore(ctx context.Context, subdomain, storeID string) error
	Complete(ctx context.Context, subdomain string) error
	MarkFailed(ctx context.Context, subdomain, message string) error
	Get(ctx context.Context, subdomain string) (*model.Reservation, error)
}

// CatalogStore is the store catalog surface the activities need.
// Satisfied by *core.StoreCatalogService.
type CatalogStore interface {
	Register(ctx context.Context, r *model.StoreRegistration) error
	Get(ctx context.Context, storeID string) (*model.StoreRegistration, error)
	SetState(ctx context.Context, storeID, state string) error
	MarkReady(ctx context.Context, storeID string) error
	MarkFailed(ctx context.Context, storeID, message string) error
	RetryFailed(ctx context.Context, storeID string) error
}

// TenantPublisher is the registry surface the activities need.
// Satisfied by *registry.Registry.
type TenantPublisher interface {
	Publish(ctx context.Context, tenant *model.Tenant) error
	Refresh(ctx context.Context, tenant *model.Tenant)
}

// Memberships is the identity surface the activities need.
// Satisfied by *core.MembershipService.
type Memberships interface {
	CreateUser(ctx context.Context, u *model.User) error
	Add(ctx context.Context, m *model.Membership) error
}

// Tenants is the tenant lookup surface the activities need.
// Satisfied by *core.TenantService.
type Tenants interface {
	GetByStoreID(ctx context.Context, storeID string) (*model.Tenant, error)
}

// Provisioning contains the activities behind tenant provisioning runs.
// Every activity is idempotent: the workflow may re-dispatch any of them
// after a worker crash.
type Provisioning struct {
	reservations Reservations
	catalog      CatalogStore
	registry     TenantPublisher
	memberships  Memberships
	tenants      Tenants

	// storeAdmin is a privileged connection used for CREATE DATABASE and
	// CREATE SCHEMA on the store host.
	storeAdmin core.DB

	storeBaseURL        string
	schemaHostDatabase  string
	tenantMigrationsDir string

	// migrate runs goose against a store DSN. Overridable in tests.
	migrate func(dsn, dir string) error

	log zerolog.Logger
}

// ProvisioningConfig carries the non-service wiring for NewProvisioning.
type ProvisioningConfig struct {
	StoreAdmin          core.DB
	StoreBaseURL        string
	SchemaHostDatabase  string
	TenantMigrationsDir string
}

func NewProvisioning(services *core.Services, registry TenantPublisher, cfg ProvisioningConfig, log zerolog.Logger) *Provisioning {
	return &Provisioning{
		reservations:        services.Reservation,
		catalog:             services.StoreCatalog,
		registry:            registry,
		memberships:         services.Membership,
		tenants:             services.Tenant,
		storeAdmin:          cfg.StoreAdmin,
		storeBaseURL:        cfg.StoreBaseURL,
		schemaHostDatabase:  cfg.SchemaHostDatabase,
		tenantMigrationsDir: cfg.TenantMigrationsDir,
		migrate:             db.RunMigrations,
		log:                 log,
	}
}

// ReserveSubdomain takes the durable claim on the subdomain. Losing the
// claim is a business outcome, not a transient fault, so it surfaces as
// a non-retryable application error.
func (a *Provisioning) ReserveSubdomain(ctx context.Context, params model.ProvisionParams) error {
	err := a.reservations.Reserve(ctx, params.Subdomain)
	if errors.Is(err, model.ErrDuplicateProvisioning) {
		return temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("subdomain %s already reserved", params.Subdomain),
			model.ErrTypeDuplicateProvisioning, err)
	}
	return err
}

// CreateStore allocates the physical store and registers it in the
// catalog. The store id is attached to the reservation first, so a
// failure here still leaves a trace pointing at the orphan.
func (a *Provisioning) CreateStore(ctx context.Context, params model.ProvisionParams) (*model.StoreRegistration, error) {
	if err := a.reservations.SetStage(ctx, params.Subdomain, model.ReservationCreatingStore); err != nil {
		return nil, err
	}

	reg := &model.StoreRegistration{
		StoreID: platform.NewStoreID(params.Subdomain),
		Kind:    params.StoreKind,
	}
	switch params.StoreKind {
	case model.StoreKindSchema:
		reg.DatabaseName = a.schemaHostDatabase
		reg.SchemaName = platform.StoreDatabaseName(params.Subdomain)
	default:
		reg.Kind = model.StoreKindDatabase
		reg.DatabaseName = platform.StoreDatabaseName(params.Subdomain)
	}

	if err := a.reservations.AttachStore(ctx, params.Subdomain, reg.StoreID); err != nil {
		return nil, err
	}

	if err := a.createPhysicalStore(ctx, reg); err != nil {
		return nil, err
	}

	if err := a.catalog.Register(ctx, reg); err != nil {
		return nil, err
	}
	a.log.Info().Str("store_id", reg.StoreID).Str("kind", reg.Kind).Msg("store created")
	return reg, nil
}

func (a *Provisioning) createPhysicalStore(ctx context.Context, reg *model.StoreRegistration) error {
	switch reg.Kind {
	case model.StoreKindSchema:
		ident := pgx.Identifier{reg.SchemaName}.Sanitize()
		if _, err := a.storeAdmin.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+ident); err != nil {
			return fmt.Errorf("create schema %s: %w", reg.SchemaName, err)
		}
	default:
		ident := pgx.Identifier{reg.DatabaseName}.Sanitize()
		if _, err := a.storeAdmin.Exec(ctx, "CREATE DATABASE "+ident); err != nil {
			// A database left behind by a failed attempt is reused.
			var pgErr *pgconn.PgError
			if !errors.As(err, &pgErr) || pgErr.Code != "42P04" {
				return fmt.Errorf("create database %s: %w", reg.DatabaseName, err)
			}
		}
	}
	return nil
}

// MigrateStoreParams holds the parameters for MigrateStore. Subdomain
// is empty on retry runs, where no reservation is in flight.
type MigrateStoreParams struct {
	Subdomain string `json:"subdomain,omitempty"`
	StoreID   string `json:"store_id"`
}

// MigrateStore applies every tenant migration domain to the store, in a
// fixed order, after checking each domain against the scope allow-list.
func (a *Provisioning) MigrateStore(ctx context.Context, params MigrateStoreParams) error {
	if params.Subdomain != "" {
		if err := a.reservations.SetStage(ctx, params.Subdomain, model.ReservationMigrating); err != nil {
			return err
		}
	}

	reg, err := a.catalog.Get(ctx, params.StoreID)
	if err != nil {
		return err
	}

	dsn, err := db.StoreDSN(a.storeBaseURL, reg.DatabaseName, reg.SchemaName)
	if err != nil {
		return err
	}

	for _, domain := range []string{router.DomainCatalog, router.DomainInventory, router.DomainSales, router.DomainCustomers} {
		if err := router.CheckMigrationTarget(domain, params.StoreID); err != nil {
			return err
		}
		if err := a.migrate(dsn, filepath.Join(a.tenantMigrationsDir, domain)); err != nil {
			return fmt.Errorf("migrate %s on store %s: %w", domain, params.StoreID, err)
		}
	}
	return nil
}

// CreateAdminUser creates the tenant's first administrator in the
// shared identity tables and returns the user id. The membership is
// added at publish time, once the tenant row exists.
func (a *Provisioning) CreateAdminUser(ctx context.Context, params model.ProvisionParams) (string, error) {
	if err := a.reservations.SetStage(ctx, params.Subdomain, model.ReservationCreatingAdmin); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash admin password: %w", err)
	}

	user := &model.User{
		ID:           platform.NewID(),
		Email:        params.AdminEmail,
		PasswordHash: string(hash),
	}
	if err := a.memberships.CreateUser(ctx, user); err != nil {
		return "", err
	}
	return user.ID, nil
}

// PublishTenantParams holds the parameters for PublishTenant. The
// tenant id is generated by the workflow, so a re-dispatched publish
// reuses the same id.
type PublishTenantParams struct {
	Params      model.ProvisionParams `json:"params"`
	StoreID     string                `json:"store_id"`
	TenantID    string                `json:"tenant_id"`
	AdminUserID string                `json:"admin_user_id"`
}

// PublishTenant is the last provisioning step. The store is marked
// ready, the admin membership written, and the reservation completed
// before the registry publish, which is the final call: a tenant from
// a failed attempt is never resolvable.
func (a *Provisioning) PublishTenant(ctx context.Context, p PublishTenantParams) (*model.Tenant, error) {
	if err := a.reservations.SetStage(ctx, p.Params.Subdomain, model.ReservationPublishing); err != nil {
		return nil, err
	}

	if err := a.catalog.SetState(ctx, p.StoreID, model.StoreReady); err != nil {
		return nil, err
	}

	limits, features := model.PlanDefaults(p.Params.Plan)
	tenant := &model.Tenant{
		ID:                 p.TenantID,
		Name:               p.Params.Name,
		Subdomain:          p.Params.Subdomain,
		StoreID:            p.StoreID,
		Plan:               p.Params.Plan,
		Limits:             limits,
		Features:           features,
		SubscriptionStatus: model.SubscriptionTrial,
		Active:             true,
	}

	// The membership row carries no foreign key into tenants, so it can
	// exist ahead of the tenant row it belongs to.
	if err := a.memberships.Add(ctx, &model.Membership{
		UserID:   p.AdminUserID,
		TenantID: tenant.ID,
		Role:     model.RoleAdmin,
	}); err != nil {
		return nil, err
	}

	if err := a.reservations.Complete(ctx, p.Params.Subdomain); err != nil {
		return nil, err
	}

	if err := a.registry.Publish(ctx, tenant); err != nil {
		return nil, err
	}

	a.log.Info().Str("tenant_id", tenant.ID).Str("subdomain", tenant.Subdomain).Msg("tenant published")
	return tenant, nil
}

// MarkProvisionFailedParams holds the parameters for MarkProvisionFailed.
type MarkProvisionFailedParams struct {
	Subdomain string `json:"subdomain"`
	Stage     string `json:"stage"`
	Message   string `json:"message"`
}

// MarkProvisionFailed records a terminal provisioning failure on the
// reservation and, when a store was already allocated, on its catalog
// entry. Returns the orphaned store id, if any.
func (a *Provisioning) MarkProvisionFailed(ctx context.Context, params MarkProvisionFailedParams) (string, error) {
	if err := a.reservations.MarkFailed(ctx, params.Subdomain, params.Message); err != nil {
		return "", err
	}

	res, err := a.reservations.Get(ctx, params.Subdomain)
	if err != nil || res.StoreID == nil {
		return "", nil
	}

	if err := a.catalog.MarkFailed(ctx, *res.StoreID, params.Message); err != nil {
		a.log.Warn().Err(err).Str("store_id", *res.StoreID).Msg("store failure mark skipped")
	}
	return *res.StoreID, nil
}

// MarkStoreFailedParams holds the parameters for MarkStoreFailed.
type MarkStoreFailedParams struct {
	StoreID string `json:"store_id"`
	Message string `json:"message"`
}

// MarkStoreFailed records a store failure on its catalog entry.
func (a *Provisioning) MarkStoreFailed(ctx context.Context, params MarkStoreFailedParams) error {
	return a.catalog.MarkFailed(ctx, params.StoreID, params.Message)
}

// GetTenantByStoreID resolves the owning tenant of a store.
func (a *Provisioning) GetTenantByStoreID(ctx context.Context, storeID string) (*model.Tenant, error) {
	return a.tenants.GetByStoreID(ctx, storeID)
}

// RetryFailedStore moves a failed store back into provisioning for a
// retry run.
func (a *Provisioning) RetryFailedStore(ctx context.Context, storeID string) error {
	if err := a.catalog.RetryFailed(ctx, storeID); err != nil {
		return err
	}
	return a.catalog.SetState(ctx, storeID, model.StoreProvisioning)
}

// MarkStoreReady flips the store to ready and refreshes the owning
// tenant's cache entry so routing recovers immediately.
func (a *Provisioning) MarkStoreReady(ctx context.Context, storeID string) error {
	if err := a.catalog.MarkReady(ctx, storeID); err != nil {
		return err
	}
	tenant, err := a.tenants.GetByStoreID(ctx, storeID)
	if err != nil {
		return err
	}
	a.registry.Refresh(ctx, tenant)
	return nil
}
