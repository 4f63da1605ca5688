package pipework

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	handoffsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pipework",
		Name:      "handoffs_total",
		Help:      "Messages handed off, by the operation that found the match.",
	}, []string{"mode"})

	waitFailuresCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pipework",
		Name:      "wait_failures_total",
		Help:      "Sends and receives that gave up waiting for a counterpart.",
	}, []string{"reason"})
)

func countWaitFailure(err error) {
	switch {
	case errors.Is(err, ErrTimeout):
		waitFailuresCounter.WithLabelValues("timeout").Inc()
	case errors.Is(err, ErrCanceled):
		waitFailuresCounter.WithLabelValues("canceled").Inc()
	case errors.Is(err, ErrUnavailable):
		waitFailuresCounter.WithLabelValues("unavailable").Inc()
	}
}
