// Package prometheus builds go-kit instruments backed by Prometheus.
package prometheus

import (
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// MakeMetrics returns a request counter and a latency histogram, both
// labelled by method.
func MakeMetrics(namespace, subsystem string) (*kitprometheus.Counter, *kitprometheus.Summary) {
	counter := kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_count",
		Help:      "Number of requests received.",
	}, []string{"method"})
	latency := kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_latency_microseconds",
		Help:      "Total duration of requests in microseconds.",
	}, []string{"method"})

	return counter, latency
}

// MakeRoundMetrics returns instruments for the round driver: a counter of
// rounds labelled by status and a histogram of held-out PR-AUC.
func MakeRoundMetrics(namespace string) (*kitprometheus.Counter, *kitprometheus.Histogram) {
	rounds := kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rounds",
		Name:      "total",
		Help:      "Number of federated rounds by outcome.",
	}, []string{"status"})
	prauc := kitprometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "rounds",
		Name:      "pr_auc",
		Help:      "PR-AUC of aggregated models on the held-out set.",
		Buckets:   stdprometheus.LinearBuckets(0, 0.1, 11),
	}, []string{})

	return rounds, prauc
}
