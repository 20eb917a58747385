package chain

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	contractCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homeseeker",
		Subsystem: "chain",
		Name:      "contract_calls_total",
		Help:      "Read-only contract calls by method.",
	}, []string{"method"})

	txSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homeseeker",
		Subsystem: "chain",
		Name:      "tx_submissions_total",
		Help:      "Signed transactions accepted by the node, by method.",
	}, []string{"method"})

	txConfirmations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "homeseeker",
		Subsystem: "chain",
		Name:      "tx_confirmations_total",
		Help:      "Transactions that produced a receipt within the bound.",
	})

	txReverts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "homeseeker",
		Subsystem: "chain",
		Name:      "tx_reverts_total",
		Help:      "Mined transactions whose receipt reported failure.",
	})
)
