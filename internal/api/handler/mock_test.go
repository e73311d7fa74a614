package handler

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/Elhussin/opticsSass/internal/model"
)

// mockDB implements the core DB interface for testing.
type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

// fakeProvisioner satisfies Provisioner with canned results.
type fakeProvisioner struct {
	tenant       *model.Tenant
	err          error
	gotParams    model.ProvisionParams
	retryStoreID string
}

func (f *fakeProvisioner) Provision(ctx context.Context, params model.ProvisionParams) (*model.Tenant, error) {
	f.gotParams = params
	return f.tenant, f.err
}

func (f *fakeProvisioner) RetryStore(ctx context.Context, storeID string) (*model.Tenant, error) {
	f.retryStoreID = storeID
	return f.tenant, f.err
}

// fakeCache records registry refreshes and invalidations.
type fakeCache struct {
	refreshed   []*model.Tenant
	invalidated []string
}

func (f *fakeCache) Refresh(ctx context.Context, tenant *model.Tenant) {
	f.refreshed = append(f.refreshed, tenant)
}

func (f *fakeCache) Invalidate(ctx context.Context, subdomain string) {
	f.invalidated = append(f.invalidated, subdomain)
}
