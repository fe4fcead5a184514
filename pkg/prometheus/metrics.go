// Package prometheus builds go-kit metrics backed by the Prometheus client.
package prometheus

import (
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// MakeMetrics returns the request counter and latency summary used by the
// service metrics middleware.
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

// RoundMetrics tracks federated rounds as they finish.
type RoundMetrics struct {
	Rounds       *kitprometheus.Counter
	Duration     *kitprometheus.Histogram
	Contributors *kitprometheus.Gauge
	Loss         *kitprometheus.Gauge
}

func MakeRoundMetrics(namespace string) RoundMetrics {
	return RoundMetrics{
		Rounds: kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rounds",
			Name:      "total",
			Help:      "Number of finished round phases.",
		}, []string{"phase", "status"}),
		Duration: kitprometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rounds",
			Name:      "duration_seconds",
			Help:      "Duration of round phases in seconds.",
			Buckets:   stdprometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"phase"}),
		Contributors: kitprometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rounds",
			Name:      "contributors",
			Help:      "Participants that contributed to the last round phase.",
		}, []string{"phase"}),
		Loss: kitprometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rounds",
			Name:      "evaluate_loss",
			Help:      "Aggregated loss of the last evaluate phase.",
		}, []string{}),
	}
}
