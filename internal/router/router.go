package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/Elhussin/opticsSass/internal/core"
	"github.com/Elhussin/opticsSass/internal/db"
	"github.com/Elhussin/opticsSass/internal/metrics"
	"github.com/Elhussin/opticsSass/internal/model"
)

// ErrStoreUnavailable means the tenant's store registration exists but
// is not in the ready state.
var ErrStoreUnavailable = errors.New("store unavailable")

// Catalog is the store catalog surface the router needs.
// Satisfied by *core.StoreCatalogService.
type Catalog interface {
	Get(ctx context.Context, storeID string) (*model.StoreRegistration, error)
	MarkFailed(ctx context.Context, storeID, message string) error
}

// openFunc opens a connection pool for a registration. Overridable in
// tests; production uses pgx pools against the store host.
type openFunc func(ctx context.Context, reg *model.StoreRegistration) (core.DB, func(), error)

// Router hands out tenant-tagged store handles. Pools are opened lazily
// per store and kept for the life of the process, or until a failure
// report evicts them.
type Router struct {
	catalog Catalog
	log     zerolog.Logger
	open    openFunc

	mu    sync.RWMutex
	pools map[string]*storePool
}

type storePool struct {
	db    core.DB
	close func()
}

// New creates a Router that opens pgx pools against the store host named
// by storeBaseURL, swapping in each registration's database name.
func New(catalog Catalog, storeBaseURL string, log zerolog.Logger) *Router {
	r := &Router{
		catalog: catalog,
		log:     log,
		pools:   map[string]*storePool{},
	}
	r.open = func(ctx context.Context, reg *model.StoreRegistration) (core.DB, func(), error) {
		dsn, err := db.WithDatabase(storeBaseURL, reg.DatabaseName)
		if err != nil {
			return nil, nil, err
		}
		schema := ""
		if reg.Kind == model.StoreKindSchema {
			schema = reg.SchemaName
		}
		pool, err := db.NewStorePool(ctx, dsn, schema)
		if err != nil {
			return nil, nil, err
		}
		metrics.RegisterStorePoolMetrics(reg.StoreID, pool)
		return pool, pool.Close, nil
	}
	return r
}

// Route returns a store handle for the tenant in tctx. The handle is
// tagged with the tenant id and operation kind and only usable with the
// same context.
func (r *Router) Route(ctx context.Context, tctx model.TenantContext, op Op) (*StoreHandle, error) {
	if tctx.Zero() {
		return nil, fmt.Errorf("route without tenant context")
	}
	if op != OpRead && op != OpWrite {
		return nil, fmt.Errorf("route tenant %s: unsupported operation %q", tctx.TenantID, op)
	}

	reg, err := r.catalog.Get(ctx, tctx.StoreID)
	if err != nil {
		return nil, fmt.Errorf("route tenant %s: %w", tctx.TenantID, err)
	}
	if reg.State != model.StoreReady {
		return nil, fmt.Errorf("%w: store %s is %s", ErrStoreUnavailable, reg.StoreID, reg.State)
	}

	pool, err := r.pool(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", reg.StoreID, err)
	}

	metrics.RoutedQueries.WithLabelValues(reg.StoreID, string(op)).Inc()
	return NewHandle(tctx.TenantID, reg.StoreID, op, pool), nil
}

func (r *Router) pool(ctx context.Context, reg *model.StoreRegistration) (core.DB, error) {
	r.mu.RLock()
	p, ok := r.pools[reg.StoreID]
	r.mu.RUnlock()
	if ok {
		return p.db, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pools[reg.StoreID]; ok {
		return p.db, nil
	}

	conn, closeFn, err := r.open(ctx, reg)
	if err != nil {
		return nil, err
	}
	r.pools[reg.StoreID] = &storePool{db: conn, close: closeFn}
	r.log.Info().Str("store_id", reg.StoreID).Str("kind", reg.Kind).Msg("opened store pool")
	return conn, nil
}

// ReportFailure marks a store failed and evicts its pool, so subsequent
// routes fail fast with ErrStoreUnavailable instead of timing out.
func (r *Router) ReportFailure(ctx context.Context, storeID string, cause error) error {
	r.mu.Lock()
	if p, ok := r.pools[storeID]; ok {
		delete(r.pools, storeID)
		if p.close != nil {
			p.close()
		}
	}
	r.mu.Unlock()

	r.log.Error().Err(cause).Str("store_id", storeID).Msg("store failure reported")
	if err := r.catalog.MarkFailed(ctx, storeID, cause.Error()); err != nil {
		return fmt.Errorf("report failure for store %s: %w", storeID, err)
	}
	return nil
}

// WaitReady polls the catalog until the store reaches the ready state.
// A failed store aborts the wait immediately.
func (r *Router) WaitReady(ctx context.Context, storeID string, timeout time.Duration) error {
	backoff := retry.WithMaxDuration(timeout, retry.NewFibonacci(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		reg, err := r.catalog.Get(ctx, storeID)
		if err != nil {
			return err
		}
		switch reg.State {
		case model.StoreReady:
			return nil
		case model.StoreFailed:
			return fmt.Errorf("store %s failed during wait", storeID)
		default:
			return retry.RetryableError(fmt.Errorf("store %s is %s", storeID, reg.State))
		}
	})
}
