package activity

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"

	"github.com/Elhussin/opticsSass/internal/core"
	"github.com/Elhussin/opticsSass/internal/model"
)

// ---------- fakes ----------

type fakeReservations struct {
	reserveErr error
	stages     []string
	storeID    string
	completed  bool
	failedMsg  string
	res        *model.Reservation
}

func (f *fakeReservations) Reserve(ctx context.Context, subdomain string) error {
	return f.reserveErr
}

func (f *fakeReservations) SetStage(ctx context.Context, subdomain, stage string) error {
	f.stages = append(f.stages, stage)
	return nil
}

func (f *fakeReservations) AttachStore(ctx context.Context, subdomain, storeID string) error {
	f.storeID = storeID
	return nil
}

func (f *fakeReservations) Complete(ctx context.Context, subdomain string) error {
	f.completed = true
	return nil
}

func (f *fakeReservations) MarkFailed(ctx context.Context, subdomain, message string) error {
	f.failedMsg = message
	return nil
}

func (f *fakeReservations) Get(ctx context.Context, subdomain string) (*model.Reservation, error) {
	if f.res == nil {
		return nil, errors.New("reservation not found")
	}
	return f.res, nil
}

type fakeCatalog struct {
	regs       map[string]*model.StoreRegistration
	registered *model.StoreRegistration
	states     map[string]string
	failedMsg  string
	retried    bool
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{regs: map[string]*model.StoreRegistration{}, states: map[string]string{}}
}

func (f *fakeCatalog) Register(ctx context.Context, r *model.StoreRegistration) error {
	f.registered = r
	f.regs[r.StoreID] = r
	return nil
}

func (f *fakeCatalog) Get(ctx context.Context, storeID string) (*model.StoreRegistration, error) {
	r, ok := f.regs[storeID]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	return r, nil
}

func (f *fakeCatalog) SetState(ctx context.Context, storeID, state string) error {
	f.states[storeID] = state
	return nil
}

func (f *fakeCatalog) MarkReady(ctx context.Context, storeID string) error {
	return f.SetState(ctx, storeID, model.StoreReady)
}

func (f *fakeCatalog) MarkFailed(ctx context.Context, storeID, message string) error {
	f.failedMsg = message
	return f.SetState(ctx, storeID, model.StoreFailed)
}

func (f *fakeCatalog) RetryFailed(ctx context.Context, storeID string) error {
	f.retried = true
	return nil
}

type fakePublisher struct {
	published *model.Tenant
	refreshed *model.Tenant
	pubErr    error
}

func (f *fakePublisher) Publish(ctx context.Context, tenant *model.Tenant) error {
	if f.pubErr != nil {
		return f.pubErr
	}
	f.published = tenant
	return nil
}

func (f *fakePublisher) Refresh(ctx context.Context, tenant *model.Tenant) {
	f.refreshed = tenant
}

type fakeMemberships struct {
	user       *model.User
	membership *model.Membership
	addErr     error
}

func (f *fakeMemberships) CreateUser(ctx context.Context, u *model.User) error {
	f.user = u
	return nil
}

func (f *fakeMemberships) Add(ctx context.Context, m *model.Membership) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.membership = m
	return nil
}

type fakeTenants struct {
	byStore map[string]*model.Tenant
}

func (f *fakeTenants) GetByStoreID(ctx context.Context, storeID string) (*model.Tenant, error) {
	t, ok := f.byStore[storeID]
	if !ok {
		return nil, core.ErrTenantNotFound
	}
	return t, nil
}

type fakeAdminDB struct {
	execs   []string
	execErr error
}

func (f *fakeAdminDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.CommandTag{}, f.execErr
}

func (f *fakeAdminDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	return nil, nil
}

func (f *fakeAdminDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	return nil
}

type fixture struct {
	act          *Provisioning
	reservations *fakeReservations
	catalog      *fakeCatalog
	publisher    *fakePublisher
	memberships  *fakeMemberships
	tenants      *fakeTenants
	admin        *fakeAdminDB
	migrated     []string
}

func newFixture() *fixture {
	f := &fixture{
		reservations: &fakeReservations{},
		catalog:      newFakeCatalog(),
		publisher:    &fakePublisher{},
		memberships:  &fakeMemberships{},
		tenants:      &fakeTenants{byStore: map[string]*model.Tenant{}},
		admin:        &fakeAdminDB{},
	}
	f.act = &Provisioning{
		reservations:        f.reservations,
		catalog:             f.catalog,
		registry:            f.publisher,
		memberships:         f.memberships,
		tenants:             f.tenants,
		storeAdmin:          f.admin,
		storeBaseURL:        "postgres://app@stores.internal:5432/postgres",
		schemaHostDatabase:  "tenant_stores",
		tenantMigrationsDir: "migrations/tenant",
		migrate: func(dsn, dir string) error {
			f.migrated = append(f.migrated, dir)
			return nil
		},
		log: zerolog.Nop(),
	}
	return f
}

func params() model.ProvisionParams {
	return model.ProvisionParams{
		Subdomain:     "acme",
		Name:          "Acme Optics",
		Plan:          "basic",
		StoreKind:     model.StoreKindDatabase,
		AdminEmail:    "owner@acme.example",
		AdminPassword: "swordfish1",
	}
}

// ---------- ReserveSubdomain ----------

func TestReserveSubdomain_DuplicateIsNonRetryable(t *testing.T) {
	f := newFixture()
	f.reservations.reserveErr = model.ErrDuplicateProvisioning

	err := f.act.ReserveSubdomain(context.Background(), params())
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, model.ErrTypeDuplicateProvisioning, appErr.Type())
	assert.True(t, appErr.NonRetryable())
}

func TestReserveSubdomain_TransientErrorPassesThrough(t *testing.T) {
	f := newFixture()
	f.reservations.reserveErr = errors.New("connection refused")

	err := f.act.ReserveSubdomain(context.Background(), params())
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	assert.False(t, errors.As(err, &appErr))
}

// ---------- CreateStore ----------

func TestCreateStore_DatabaseKind(t *testing.T) {
	f := newFixture()

	reg, err := f.act.CreateStore(context.Background(), params())
	require.NoError(t, err)

	assert.Regexp(t, `^acme-store-[a-z0-9]{10}$`, reg.StoreID)
	assert.Equal(t, model.StoreKindDatabase, reg.Kind)
	assert.Equal(t, "acme_db", reg.DatabaseName)
	assert.Empty(t, reg.SchemaName)

	// Stage set and store attached before the physical create.
	assert.Equal(t, []string{model.ReservationCreatingStore}, f.reservations.stages)
	assert.Equal(t, reg.StoreID, f.reservations.storeID)

	require.Len(t, f.admin.execs, 1)
	assert.Contains(t, f.admin.execs[0], `CREATE DATABASE "acme_db"`)
	assert.Equal(t, reg, f.catalog.registered)
}

func TestCreateStore_SchemaKind(t *testing.T) {
	f := newFixture()
	p := params()
	p.StoreKind = model.StoreKindSchema

	reg, err := f.act.CreateStore(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, model.StoreKindSchema, reg.Kind)
	assert.Equal(t, "tenant_stores", reg.DatabaseName)
	assert.Equal(t, "acme_db", reg.SchemaName)

	require.Len(t, f.admin.execs, 1)
	assert.Contains(t, f.admin.execs[0], `CREATE SCHEMA IF NOT EXISTS "acme_db"`)
}

func TestCreateStore_AdminError(t *testing.T) {
	f := newFixture()
	f.admin.execErr = errors.New("permission denied")

	_, err := f.act.CreateStore(context.Background(), params())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create database")
	assert.Nil(t, f.catalog.registered)
}

// ---------- MigrateStore ----------

func TestMigrateStore_RunsAllTenantDomains(t *testing.T) {
	f := newFixture()
	f.catalog.regs["acme-store-a1b2c3d4e5"] = &model.StoreRegistration{
		StoreID:      "acme-store-a1b2c3d4e5",
		Kind:         model.StoreKindDatabase,
		DatabaseName: "acme_db",
	}

	err := f.act.MigrateStore(context.Background(), MigrateStoreParams{
		Subdomain: "acme",
		StoreID:   "acme-store-a1b2c3d4e5",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{model.ReservationMigrating}, f.reservations.stages)
	assert.Equal(t, []string{
		filepath.Join("migrations/tenant", "catalog"),
		filepath.Join("migrations/tenant", "inventory"),
		filepath.Join("migrations/tenant", "sales"),
		filepath.Join("migrations/tenant", "customers"),
	}, f.migrated)
}

func TestMigrateStore_MigrationError(t *testing.T) {
	f := newFixture()
	f.catalog.regs["acme-store-a1b2c3d4e5"] = &model.StoreRegistration{
		StoreID:      "acme-store-a1b2c3d4e5",
		DatabaseName: "acme_db",
	}
	f.act.migrate = func(dsn, dir string) error {
		return errors.New("syntax error in 002_inventory.sql")
	}

	err := f.act.MigrateStore(context.Background(), MigrateStoreParams{StoreID: "acme-store-a1b2c3d4e5"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate catalog on store")
}

// ---------- CreateAdminUser ----------

func TestCreateAdminUser_HashesPassword(t *testing.T) {
	f := newFixture()

	userID, err := f.act.CreateAdminUser(context.Background(), params())
	require.NoError(t, err)
	assert.NotEmpty(t, userID)

	require.NotNil(t, f.memberships.user)
	assert.Equal(t, "owner@acme.example", f.memberships.user.Email)
	assert.NotEqual(t, "swordfish1", f.memberships.user.PasswordHash)
	assert.NotEmpty(t, f.memberships.user.PasswordHash)
}

// ---------- PublishTenant ----------

func TestPublishTenant_PublishesAndCompletes(t *testing.T) {
	f := newFixture()

	tenant, err := f.act.PublishTenant(context.Background(), PublishTenantParams{
		Params:      params(),
		StoreID:     "acme-store-a1b2c3d4e5",
		TenantID:    "tenant-1",
		AdminUserID: "user-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "tenant-1", tenant.ID)
	assert.Equal(t, "acme", tenant.Subdomain)
	assert.Equal(t, "acme-store-a1b2c3d4e5", tenant.StoreID)
	assert.Equal(t, model.SubscriptionTrial, tenant.SubscriptionStatus)
	assert.Equal(t, 5, tenant.Limits.MaxUsers)
	assert.True(t, tenant.Active)

	assert.Equal(t, model.StoreReady, f.catalog.states["acme-store-a1b2c3d4e5"])
	assert.Equal(t, tenant, f.publisher.published)
	require.NotNil(t, f.memberships.membership)
	assert.Equal(t, "user-1", f.memberships.membership.UserID)
	assert.Equal(t, "tenant-1", f.memberships.membership.TenantID)
	assert.Equal(t, model.RoleAdmin, f.memberships.membership.Role)
	assert.True(t, f.reservations.completed)
}

func TestPublishTenant_MembershipErrorKeepsTenantUnresolvable(t *testing.T) {
	f := newFixture()
	f.memberships.addErr = errors.New("insert failed")

	_, err := f.act.PublishTenant(context.Background(), PublishTenantParams{
		Params:   params(),
		StoreID:  "acme-store-a1b2c3d4e5",
		TenantID: "tenant-1",
	})
	require.Error(t, err)
	assert.Nil(t, f.publisher.published)
	assert.False(t, f.reservations.completed)
}

func TestPublishTenant_PublishIsLastStep(t *testing.T) {
	f := newFixture()
	f.publisher.pubErr = errors.New("insert failed")

	_, err := f.act.PublishTenant(context.Background(), PublishTenantParams{
		Params:   params(),
		StoreID:  "acme-store-a1b2c3d4e5",
		TenantID: "tenant-1",
	})
	require.Error(t, err)

	// Everything before the publish already ran, so a retried publish
	// only has to write the tenant row.
	require.NotNil(t, f.memberships.membership)
	assert.True(t, f.reservations.completed)
	assert.Nil(t, f.publisher.published)
}

// ---------- MarkProvisionFailed ----------

func TestMarkProvisionFailed_ReturnsOrphanedStore(t *testing.T) {
	f := newFixture()
	storeID := "acme-store-a1b2c3d4e5"
	f.reservations.res = &model.Reservation{Subdomain: "acme", StoreID: &storeID}
	f.catalog.regs[storeID] = &model.StoreRegistration{StoreID: storeID}

	got, err := f.act.MarkProvisionFailed(context.Background(), MarkProvisionFailedParams{
		Subdomain: "acme",
		Stage:     model.StageMigrating,
		Message:   "migration timeout",
	})
	require.NoError(t, err)
	assert.Equal(t, storeID, got)
	assert.Equal(t, "migration timeout", f.reservations.failedMsg)
	assert.Equal(t, "migration timeout", f.catalog.failedMsg)
}

func TestMarkProvisionFailed_NoStoreAllocated(t *testing.T) {
	f := newFixture()
	f.reservations.res = &model.Reservation{Subdomain: "acme"}

	got, err := f.act.MarkProvisionFailed(context.Background(), MarkProvisionFailedParams{
		Subdomain: "acme",
		Stage:     model.StageReserving,
		Message:   "boom",
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

// ---------- MarkStoreReady ----------

func TestMarkStoreReady_RefreshesCache(t *testing.T) {
	f := newFixture()
	storeID := "acme-store-a1b2c3d4e5"
	f.catalog.regs[storeID] = &model.StoreRegistration{StoreID: storeID}
	tenant := &model.Tenant{ID: "tenant-1", Subdomain: "acme", StoreID: storeID}
	f.tenants.byStore[storeID] = tenant

	require.NoError(t, f.act.MarkStoreReady(context.Background(), storeID))
	assert.Equal(t, model.StoreReady, f.catalog.states[storeID])
	assert.Equal(t, tenant, f.publisher.refreshed)
}
