package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RegistryLookups counts tenant registry lookups by outcome:
	// cache_hit, cache_negative, db_hit, db_miss.
	RegistryLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_registry_lookups_total",
			Help: "Total tenant registry lookups by outcome",
		},
		[]string{"outcome"},
	)

	// ResolverRequests counts resolution attempts by result:
	// resolved, no_tenant, unknown_tenant, unavailable.
	ResolverRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_resolver_requests_total",
			Help: "Total tenant resolution attempts by result",
		},
		[]string{"result"},
	)

	// RoutedQueries counts store handle acquisitions by store id and
	// operation kind.
	RoutedQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_router_routes_total",
			Help: "Total store handle acquisitions by store id and operation",
		},
		[]string{"store_id", "op"},
	)
)
