// Package metrics wraps the small set of prometheus counters the store
// reports: object lifecycle, index upkeep and migration activity. A
// disabled build (no scrape endpoint wired up) still pays only the cost of
// a counter increment.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ObjectsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "odb",
		Name:      "objects_created_total",
		Help:      "Objects created across all transactions.",
	})
	ObjectsDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "odb",
		Name:      "objects_deleted_total",
		Help:      "Objects removed by delete() including cascades.",
	})
	MigrationsApplied = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "odb",
		Name:      "migrations_applied_total",
		Help:      "Per-object schema migrations applied (lazy + bulk).",
	})
	NotificationsDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "odb",
		Name:      "listener_notifications_total",
		Help:      "Field-change callbacks delivered to FieldMonitors.",
	})
	IndexEntriesRepaired = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "odb",
		Name:      "index_entries_repaired_total",
		Help:      "Index rows added or removed by a maintenance migration.",
	})
	ObjectsCopied = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "odb",
		Name:      "objects_copied_total",
		Help:      "Objects copied across transactions by the copy/detached engine.",
	})
)

func init() {
	prometheus.MustRegister(
		ObjectsCreated,
		ObjectsDeleted,
		MigrationsApplied,
		NotificationsDelivered,
		IndexEntriesRepaired,
		ObjectsCopied,
	)
}
