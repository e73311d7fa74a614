package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Elhussin/opticsSass/internal/core"
	"github.com/Elhussin/opticsSass/internal/model"
	"github.com/Elhussin/opticsSass/internal/router"
)

// pingDB counts QueryRow calls on the routed store.
type pingDB struct {
	queryRowCalls int
}

func (d *pingDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("SELECT 1"), nil
}

func (d *pingDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	return nil, nil
}

func (d *pingDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	d.queryRowCalls++
	return &mockRow{scanFunc: func(dest ...any) error {
		if p, ok := dest[0].(*int); ok {
			*p = 1
		}
		return nil
	}}
}

// fakeStoreRouter issues handles over a fixed connection.
type fakeStoreRouter struct {
	db  core.DB
	err error
}

func (f *fakeStoreRouter) Route(ctx context.Context, tctx model.TenantContext, op router.Op) (*router.StoreHandle, error) {
	if f.err != nil {
		return nil, f.err
	}
	return router.NewHandle(tctx.TenantID, tctx.StoreID, op, f.db), nil
}

func TestStorefrontCurrent_ReturnsTenant(t *testing.T) {
	tenant := acmeTenant()
	db := &mockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(&mockRow{
		scanFunc: func(dest ...any) error { return scanTenant(tenant, dest...) },
	})
	h := NewStorefront(core.NewTenantService(db), &fakeStoreRouter{})

	rec := httptest.NewRecorder()
	req := withTenantContext(newRequest(http.MethodGet, "/api/v1/store", nil), model.NewTenantContext(tenant))
	h.Current(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"subdomain":"acme"`)
}

func TestStorefrontCurrent_NoTenantContext(t *testing.T) {
	h := NewStorefront(core.NewTenantService(&mockDB{}), &fakeStoreRouter{})

	rec := httptest.NewRecorder()
	h.Current(rec, newRequest(http.MethodGet, "/api/v1/store", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStorefrontPing_RoutesToStore(t *testing.T) {
	tenant := acmeTenant()
	conn := &pingDB{}
	h := NewStorefront(core.NewTenantService(&mockDB{}), &fakeStoreRouter{db: conn})

	rec := httptest.NewRecorder()
	req := withTenantContext(newRequest(http.MethodGet, "/api/v1/store/ping", nil), model.NewTenantContext(tenant))
	h.Ping(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, conn.queryRowCalls)
	assert.Contains(t, rec.Body.String(), tenant.StoreID)
}

func TestStorefrontPing_StoreUnavailable(t *testing.T) {
	tenant := acmeTenant()
	h := NewStorefront(core.NewTenantService(&mockDB{}), &fakeStoreRouter{err: router.ErrStoreUnavailable})

	rec := httptest.NewRecorder()
	req := withTenantContext(newRequest(http.MethodGet, "/api/v1/store/ping", nil), model.NewTenantContext(tenant))
	h.Ping(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
