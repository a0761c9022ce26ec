package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LiquidationMetrics holds the service counters exposed on /metrics.
type LiquidationMetrics struct {
	LiquidationsConfirmedTotal prometheus.Counter
	LiquidationsDeletedTotal   prometheus.Counter
	LiquidationsUpdatedTotal   prometheus.Counter

	GrossAmountCOPTotal prometheus.Counter
	CommissionCOPTotal  prometheus.Counter
	TotalBRLTotal       prometheus.Counter

	RateFetchTotal    *prometheus.CounterVec
	RateFetchDuration prometheus.Histogram

	ExportsTotal *prometheus.CounterVec

	ValidationRejectionsTotal *prometheus.CounterVec
}

func NewLiquidationMetrics() *LiquidationMetrics {
	return &LiquidationMetrics{
		LiquidationsConfirmedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "liquidations_confirmed_total",
			Help: "Number of liquidations confirmed and added to the history",
		}),
		LiquidationsDeletedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "liquidations_deleted_total",
			Help: "Number of liquidation records deleted",
		}),
		LiquidationsUpdatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "liquidations_updated_total",
			Help: "Number of liquidation records edited",
		}),

		GrossAmountCOPTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "liquidations_gross_cop_total",
			Help: "Total gross COP across confirmed liquidations",
		}),
		CommissionCOPTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "liquidations_commission_cop_total",
			Help: "Total commission COP retained across confirmed liquidations",
		}),
		TotalBRLTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "liquidations_total_brl_total",
			Help: "Total BRL paid out across confirmed liquidations",
		}),

		RateFetchTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_fetch_total",
			Help: "Rate provider calls by outcome",
		}, []string{"outcome"}),
		RateFetchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rate_fetch_duration_seconds",
			Help:    "Rate provider call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),

		ExportsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "exports_total",
			Help: "CSV export requests by outcome",
		}, []string{"outcome"}),

		ValidationRejectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "validation_rejections_total",
			Help: "Confirmations rejected by validation, by reason",
		}, []string{"reason"}),
	}
}

func (m *LiquidationMetrics) RecordConfirmed(gross, commission, totalBRL float64) {
	m.LiquidationsConfirmedTotal.Inc()
	m.GrossAmountCOPTotal.Add(gross)
	m.CommissionCOPTotal.Add(commission)
	m.TotalBRLTotal.Add(totalBRL)
}

func (m *LiquidationMetrics) RecordRateFetch(outcome string, durationSeconds float64) {
	m.RateFetchTotal.WithLabelValues(outcome).Inc()
	m.RateFetchDuration.Observe(durationSeconds)
}

func (m *LiquidationMetrics) RecordExport(outcome string) {
	m.ExportsTotal.WithLabelValues(outcome).Inc()
}

func (m *LiquidationMetrics) RecordValidationRejection(reason string) {
	m.ValidationRejectionsTotal.WithLabelValues(reason).Inc()
}
