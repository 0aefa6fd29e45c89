package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Activations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promo_activations_total",
		Help: "Promo redemption attempts by outcome",
	}, []string{"outcome"})

	ActivationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "promo_activation_duration_seconds",
		Help:    "Time to complete a redemption attempt",
		Buckets: prometheus.DefBuckets,
	})

	FraudDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promo_fraud_decisions_total",
		Help: "Fraud gateway decisions by source",
	}, []string{"source"})

	TokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promo_tokens_issued_total",
		Help: "Credentials issued by subject kind",
	}, []string{"kind"})

	ActivePromos = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "promo_active_promos",
		Help: "Number of promos currently marked active",
	})
)

func IncActivation(outcome string) {
	label := strings.TrimSpace(outcome)
	if label == "" {
		label = "unknown"
	}
	Activations.WithLabelValues(label).Inc()
}

func ObserveActivationDuration(duration time.Duration) {
	ActivationDuration.Observe(duration.Seconds())
}

func IncFraudDecision(source string) {
	label := strings.TrimSpace(source)
	if label == "" {
		label = "unknown"
	}
	FraudDecisions.WithLabelValues(label).Inc()
}

func IncTokensIssued(kind string) {
	TokensIssued.WithLabelValues(kind).Inc()
}

func SetActivePromos(count int64) {
	if count < 0 {
		count = 0
	}
	ActivePromos.Set(float64(count))
}
