package router

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Elhussin/opticsSass/internal/core"
	"github.com/Elhussin/opticsSass/internal/model"
)

// ErrForeignHandle means a store handle was used with a tenant context
// other than the one it was issued for.
var ErrForeignHandle = errors.New("store handle used with foreign tenant context")

// ErrReadOnlyHandle means a statement was executed on a handle issued
// for reads.
var ErrReadOnlyHandle = errors.New("write on read-only store handle")

// Op is the kind of work a handle is issued for. Schema migrations do
// not flow through handles; see CheckMigrationTarget.
type Op string

const (
	OpRead  Op = "read"
	OpWrite Op = "write"
)

// StoreHandle is a tenant-tagged connection to one store. Every
// operation revalidates the tenant context against the tag, so a handle
// that leaks across requests cannot touch another tenant's data.
type StoreHandle struct {
	tenantID string
	storeID  string
	op       Op
	db       core.DB
}

// NewHandle tags a connection with the tenant and operation kind it was
// issued for.
func NewHandle(tenantID, storeID string, op Op, db core.DB) *StoreHandle {
	return &StoreHandle{tenantID: tenantID, storeID: storeID, op: op, db: db}
}

func (h *StoreHandle) StoreID() string {
	return h.storeID
}

func (h *StoreHandle) check(tctx model.TenantContext) error {
	if tctx.TenantID == "" || tctx.TenantID != h.tenantID {
		return ErrForeignHandle
	}
	return nil
}

func (h *StoreHandle) Exec(ctx context.Context, tctx model.TenantContext, sql string, arguments ...any) (pgconn.CommandTag, error) {
	if err := h.check(tctx); err != nil {
		return pgconn.CommandTag{}, err
	}
	if h.op != OpWrite {
		return pgconn.CommandTag{}, ErrReadOnlyHandle
	}
	return h.db.Exec(ctx, sql, arguments...)
}

func (h *StoreHandle) Query(ctx context.Context, tctx model.TenantContext, sql string, arguments ...any) (pgx.Rows, error) {
	if err := h.check(tctx); err != nil {
		return nil, err
	}
	return h.db.Query(ctx, sql, arguments...)
}

func (h *StoreHandle) QueryRow(ctx context.Context, tctx model.TenantContext, sql string, arguments ...any) (pgx.Row, error) {
	if err := h.check(tctx); err != nil {
		return nil, err
	}
	return h.db.QueryRow(ctx, sql, arguments...), nil
}
