package resource

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	acquireRetriesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pipework",
		Subsystem: "resource",
		Name:      "acquire_retries_total",
		Help:      "Acquisitions discarded because the domain root moved while waiting for it.",
	})

	gatewayClosuresCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pipework",
		Subsystem: "resource",
		Name:      "gateway_closures_total",
		Help:      "Times an acquisition closed its arena gateway after reaching the failure threshold.",
	})

	domainChangesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pipework",
		Subsystem: "resource",
		Name:      "domain_changes_total",
		Help:      "Resource domains merged or split by connect and disconnect.",
	}, []string{"op"})
)
