package kernelcalls

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/satlayer/vesting-claim/claim-api/metrics/consts"
)

type Indicators interface {
	ObserveKernelRequestDurationSeconds(duration float64, kernelID string)
	AddKernelRequestTotal(kernelID, outcome string)
}

type PromIndicators struct {
	kernelRequestDurationSeconds *prometheus.HistogramVec
	kernelRequestTotal           *prometheus.CounterVec
}

var _ Indicators = (*PromIndicators)(nil)

func NewPromIndicators(appName string, reg prometheus.Registerer) *PromIndicators {
	return &PromIndicators{
		kernelRequestDurationSeconds: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   consts.VestClaimPromNamespace,
				Subsystem:   consts.KernelCalls,
				Name:        "request_duration_seconds",
				Help:        "Duration of kernel execution requests in seconds",
				ConstLabels: prometheus.Labels{"app_name": appName},
			},
			[]string{"kernel_id"},
		),
		kernelRequestTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   consts.VestClaimPromNamespace,
				Subsystem:   consts.KernelCalls,
				Name:        "request_total",
				Help:        "Total number of kernel execution requests by outcome",
				ConstLabels: prometheus.Labels{"app_name": appName},
			},
			[]string{"kernel_id", "outcome"},
		),
	}
}

// ObserveKernelRequestDurationSeconds observes the duration of a kernel execution request
func (p *PromIndicators) ObserveKernelRequestDurationSeconds(duration float64, kernelID string) {
	p.kernelRequestDurationSeconds.With(prometheus.Labels{
		"kernel_id": kernelID,
	}).Observe(duration)
}

// AddKernelRequestTotal counts a kernel execution request
func (p *PromIndicators) AddKernelRequestTotal(kernelID, outcome string) {
	p.kernelRequestTotal.With(prometheus.Labels{
		"kernel_id": kernelID,
		"outcome":   outcome,
	}).Inc()
}
