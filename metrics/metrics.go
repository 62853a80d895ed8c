// Package metrics holds the prometheus collectors shared by the vault node,
// the indexer and the payout keeper.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vault"

var (
	// ChainTransactions counts transactions applied by the simulated ledger,
	// partitioned by contract method and receipt status.
	ChainTransactions = register(prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "transactions_total",
			Help:      "Transactions applied by the ledger.",
		},
		[]string{"method", "status"},
	)).(*prometheus.CounterVec)

	ChainHeight = register(prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "height",
			Help:      "Number of the latest sealed block.",
		},
	)).(prometheus.Gauge)

	SyncedBlock = register(prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "finalized_block",
			Help:      "Last finalized block processed by the indexer.",
		},
	)).(prometheus.Gauge)

	SyncedEvents = register(prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "events_total",
			Help:      "Vault events processed by the indexer, partitioned by event name.",
		},
		[]string{"event"},
	)).(*prometheus.CounterVec)

	// KeeperTxs counts payout transactions by outcome: sent, mined, reverted,
	// timeout or failed.
	KeeperTxs = register(prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "keeper",
			Name:      "transactions_total",
			Help:      "Collect transactions handled by the payout keeper, partitioned by outcome.",
		},
		[]string{"outcome"},
	)).(*prometheus.CounterVec)

	KeeperMonitored = register(prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "keeper",
			Name:      "monitored_transactions",
			Help:      "Collect transactions waiting for a receipt.",
		},
	)).(prometheus.Gauge)
)
