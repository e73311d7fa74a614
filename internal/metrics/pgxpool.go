package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterStorePoolMetrics exposes pgx connection pool statistics for one
// store as Prometheus gauges labelled by store id. Re-registering the same
// store (after a pool reopen) is a no-op.
func RegisterStorePoolMetrics(storeID string, pool *pgxpool.Pool) {
	labels := prometheus.Labels{"store_id": storeID}

	gauges := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "store_pool_acquired_conns",
			Help:        "Number of currently acquired connections in the store pool",
			ConstLabels: labels,
		}, func() float64 {
			return float64(pool.Stat().AcquiredConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "store_pool_max_conns",
			Help:        "Maximum number of connections in the store pool",
			ConstLabels: labels,
		}, func() float64 {
			return float64(pool.Stat().MaxConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "store_pool_total_conns",
			Help:        "Total number of connections in the store pool",
			ConstLabels: labels,
		}, func() float64 {
			return float64(pool.Stat().TotalConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "store_pool_idle_conns",
			Help:        "Number of idle connections in the store pool",
			ConstLabels: labels,
		}, func() float64 {
			return float64(pool.Stat().IdleConns())
		}),
	}

	for _, g := range gauges {
		if err := prometheus.Register(g); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
}
