package claimpipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/satlayer/vesting-claim/claim-api/metrics/consts"
)

type Indicators interface {
	IncrementOperationsTotal(kind, outcome string)
	IncrementStageFailures(stage, reason string)
	ObserveOperationDurationSeconds(kind string, duration float64)
	SetInFlightOperations(count int)
}

type PromIndicators struct {
	operationsTotal   *prometheus.CounterVec
	stageFailures     *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	inFlight          prometheus.Gauge
}

var _ Indicators = (*PromIndicators)(nil)

func NewPromIndicators(appName string, reg prometheus.Registerer) *PromIndicators {
	return &PromIndicators{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   consts.VestClaimPromNamespace,
				Subsystem:   consts.ClaimPipeline,
				Name:        "operations_total",
				Help:        "Operations run to completion by kind and outcome (confirmed, ready, failed)",
				ConstLabels: prometheus.Labels{"app_name": appName},
			},
			[]string{"kind", "outcome"},
		),
		stageFailures: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   consts.VestClaimPromNamespace,
				Subsystem:   consts.ClaimPipeline,
				Name:        "stage_failures_total",
				Help:        "Failures by the stage they occurred in and their reason",
				ConstLabels: prometheus.Labels{"app_name": appName},
			},
			[]string{"stage", "reason"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   consts.VestClaimPromNamespace,
				Subsystem:   consts.ClaimPipeline,
				Name:        "operation_duration_seconds",
				Help:        "Wall time of one operation attempt in seconds",
				ConstLabels: prometheus.Labels{"app_name": appName},
				Buckets:     prometheus.ExponentialBuckets(0.5, 2, 10),
			},
			[]string{"kind"},
		),
		inFlight: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace:   consts.VestClaimPromNamespace,
				Subsystem:   consts.ClaimPipeline,
				Name:        "in_flight_operations",
				Help:        "Operations currently between Idle and a terminal state",
				ConstLabels: prometheus.Labels{"app_name": appName},
			},
		),
	}
}

func (p *PromIndicators) IncrementOperationsTotal(kind, outcome string) {
	p.operationsTotal.WithLabelValues(kind, outcome).Inc()
}

func (p *PromIndicators) IncrementStageFailures(stage, reason string) {
	p.stageFailures.WithLabelValues(stage, reason).Inc()
}

func (p *PromIndicators) ObserveOperationDurationSeconds(kind string, duration float64) {
	p.operationDuration.WithLabelValues(kind).Observe(duration)
}

func (p *PromIndicators) SetInFlightOperations(count int) {
	p.inFlight.Set(float64(count))
}
