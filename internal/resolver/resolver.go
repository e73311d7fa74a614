package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Elhussin/opticsSass/internal/core"
	"github.com/Elhussin/opticsSass/internal/metrics"
	"github.com/Elhussin/opticsSass/internal/model"
)

var (
	// ErrNoTenant means the host carries no tenant subdomain at all.
	ErrNoTenant = errors.New("no tenant subdomain in host")
	// ErrUnknownTenant means the subdomain is well-formed but unregistered.
	ErrUnknownTenant = errors.New("unknown tenant")
	// ErrTenantUnavailable means the tenant exists but may not serve
	// requests (suspended, cancelled, or expired).
	ErrTenantUnavailable = errors.New("tenant unavailable")
)

// TenantLookup is the registry surface the resolver needs.
type TenantLookup interface {
	Lookup(ctx context.Context, subdomain string) (*model.Tenant, error)
}

// Resolver turns request hosts into tenant contexts. There is no default
// tenant: a host that does not name one is an error, never a fallback.
type Resolver struct {
	registry    TenantLookup
	development bool
	log         zerolog.Logger
	now         func() time.Time
}

func New(registry TenantLookup, development bool, log zerolog.Logger) *Resolver {
	return &Resolver{registry: registry, development: development, log: log, now: time.Now}
}

// Subdomain extracts the tenant subdomain from a request host. The port
// is dropped, the host lowercased, and a leading "www." stripped before
// the label count is inspected. Two-label hosts only resolve in
// development, where tenant.localhost style hosts are common.
func (r *Resolver) Subdomain(host string) (string, error) {
	host, _, _ = strings.Cut(strings.ToLower(strings.TrimSpace(host)), ":")
	host = strings.TrimPrefix(host, "www.")

	if host == "" || net.ParseIP(host) != nil {
		return "", ErrNoTenant
	}

	labels := strings.Split(host, ".")
	switch {
	case len(labels) >= 3:
		return labels[0], nil
	case len(labels) == 2 && r.development:
		if labels[0] == "localhost" {
			return "", ErrNoTenant
		}
		return labels[0], nil
	default:
		return "", ErrNoTenant
	}
}

// Resolve maps a request host to an immutable tenant context. The
// returned context carries everything downstream code needs; nothing
// here is stored in process-wide state.
func (r *Resolver) Resolve(ctx context.Context, host string) (model.TenantContext, error) {
	subdomain, err := r.Subdomain(host)
	if err != nil {
		metrics.ResolverRequests.WithLabelValues("no_tenant").Inc()
		return model.TenantContext{}, err
	}

	tenant, err := r.registry.Lookup(ctx, subdomain)
	if errors.Is(err, core.ErrTenantNotFound) {
		metrics.ResolverRequests.WithLabelValues("unknown_tenant").Inc()
		return model.TenantContext{}, fmt.Errorf("%w: %s", ErrUnknownTenant, subdomain)
	}
	if err != nil {
		return model.TenantContext{}, fmt.Errorf("resolve %s: %w", subdomain, err)
	}

	if !tenant.Accessible(r.now()) {
		metrics.ResolverRequests.WithLabelValues("unavailable").Inc()
		// The reason stays in the log; callers only see the opaque
		// unavailable error.
		r.log.Info().
			Str("subdomain", subdomain).
			Str("tenant_id", tenant.ID).
			Str("reason", denialReason(tenant, r.now())).
			Msg("tenant rejected")
		return model.TenantContext{}, fmt.Errorf("%w: %s", ErrTenantUnavailable, subdomain)
	}

	metrics.ResolverRequests.WithLabelValues("resolved").Inc()
	return model.NewTenantContext(tenant), nil
}

// denialReason names why an inaccessible tenant was rejected, in the
// same order Accessible checks.
func denialReason(t *model.Tenant, now time.Time) string {
	switch {
	case !t.Active:
		return "deactivated"
	case t.SubscriptionStatus == model.SubscriptionCancelled:
		return "cancelled"
	case t.SubscriptionStatus == model.SubscriptionSuspended:
		return "suspended"
	case t.SubscriptionStatus == model.SubscriptionTrial && t.TrialEndsAt != nil && now.After(*t.TrialEndsAt):
		return "trial_expired"
	case t.SubscriptionEndsAt != nil && now.After(*t.SubscriptionEndsAt):
		return "subscription_expired"
	default:
		return "unknown"
	}
}
