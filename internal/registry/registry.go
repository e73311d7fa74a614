package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Elhussin/opticsSass/internal/core"
	"github.com/Elhussin/opticsSass/internal/metrics"
	"github.com/Elhussin/opticsSass/internal/model"
)

const (
	positiveTTL = 15 * time.Minute
	negativeTTL = 5 * time.Minute

	// negativeSentinel marks a cached "no such tenant" answer so misses
	// don't hammer the shared store.
	negativeSentinel = "__none__"

	keyPrefix = "tenant:"
)

// TenantStore is the shared-store surface the registry needs.
// Satisfied by *core.TenantService.
type TenantStore interface {
	GetBySubdomain(ctx context.Context, subdomain string) (*model.Tenant, error)
	Insert(ctx context.Context, t *model.Tenant) error
}

// Registry answers subdomain lookups from a Redis cache in front of the
// shared store. The cache is an optimization only: any cache failure
// degrades to a direct store read.
type Registry struct {
	tenants TenantStore
	cache   Cache
	log     zerolog.Logger
}

func New(tenants TenantStore, cache Cache, log zerolog.Logger) *Registry {
	return &Registry{tenants: tenants, cache: cache, log: log}
}

// Lookup returns the tenant registered for a subdomain, or
// core.ErrTenantNotFound. Positive answers are cached for 15 minutes,
// negative answers for 5 minutes.
func (r *Registry) Lookup(ctx context.Context, subdomain string) (*model.Tenant, error) {
	key := keyPrefix + subdomain

	val, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		if val == negativeSentinel {
			metrics.RegistryLookups.WithLabelValues("cache_negative").Inc()
			return nil, core.ErrTenantNotFound
		}
		var t model.Tenant
		if uerr := json.Unmarshal([]byte(val), &t); uerr == nil {
			metrics.RegistryLookups.WithLabelValues("cache_hit").Inc()
			return &t, nil
		}
		r.log.Warn().Str("subdomain", subdomain).Msg("corrupt registry cache entry, falling back to store")
	case errors.Is(err, ErrCacheMiss):
		// fall through to the shared store
	default:
		r.log.Warn().Err(err).Str("subdomain", subdomain).Msg("registry cache read failed")
	}

	tenant, err := r.tenants.GetBySubdomain(ctx, subdomain)
	if errors.Is(err, core.ErrTenantNotFound) {
		metrics.RegistryLookups.WithLabelValues("db_miss").Inc()
		r.set(ctx, key, negativeSentinel, negativeTTL)
		return nil, core.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("registry lookup %s: %w", subdomain, err)
	}

	metrics.RegistryLookups.WithLabelValues("db_hit").Inc()
	r.cacheTenant(ctx, tenant)
	return tenant, nil
}

// Publish writes a newly provisioned tenant to the shared store and then
// overwrites the cache entry for its subdomain. Overwriting rather than
// invalidating guarantees the tenant is resolvable the moment Publish
// returns, even if a negative entry was cached during provisioning. When
// the overwrite fails, the entry is dropped instead, so a stale negative
// can never outlive Publish; only if the drop also fails does Publish
// return an error for the caller to retry.
func (r *Registry) Publish(ctx context.Context, tenant *model.Tenant) error {
	if err := r.tenants.Insert(ctx, tenant); err != nil {
		return fmt.Errorf("publish tenant %s: %w", tenant.Subdomain, err)
	}

	key := keyPrefix + tenant.Subdomain
	data, err := json.Marshal(tenant)
	if err != nil {
		return fmt.Errorf("marshal tenant %s for cache: %w", tenant.Subdomain, err)
	}
	if err := r.cache.Set(ctx, key, string(data), positiveTTL); err != nil {
		if derr := r.cache.Del(ctx, key); derr != nil {
			return fmt.Errorf("publish cache overwrite for %s: %w", tenant.Subdomain, err)
		}
		r.log.Warn().Err(err).Str("subdomain", tenant.Subdomain).Msg("publish cache overwrite failed, entry dropped")
	}
	return nil
}

// Refresh overwrites the cache entry for an existing tenant after a
// metadata change, so the change is visible without waiting out the TTL.
func (r *Registry) Refresh(ctx context.Context, tenant *model.Tenant) {
	r.cacheTenant(ctx, tenant)
}

// Invalidate drops the cache entry for a subdomain. Used on suspension,
// where serving a stale accessible tenant for the full TTL is not
// acceptable.
func (r *Registry) Invalidate(ctx context.Context, subdomain string) {
	if err := r.cache.Del(ctx, keyPrefix+subdomain); err != nil {
		r.log.Warn().Err(err).Str("subdomain", subdomain).Msg("registry cache invalidation failed")
	}
}

func (r *Registry) cacheTenant(ctx context.Context, tenant *model.Tenant) {
	data, err := json.Marshal(tenant)
	if err != nil {
		r.log.Warn().Err(err).Str("subdomain", tenant.Subdomain).Msg("marshal tenant for cache failed")
		return
	}
	r.set(ctx, keyPrefix+tenant.Subdomain, string(data), positiveTTL)
}

func (r *Registry) set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := r.cache.Set(ctx, key, value, ttl); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("registry cache write failed")
	}
}
