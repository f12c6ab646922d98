// Package metrics owns the process registry and the HTTP endpoint that
// exposes it alongside a readiness check.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/satlayer/vesting-claim/claim-api/logger"
	claimpipeline "github.com/satlayer/vesting-claim/claim-api/metrics/indicators/claim_pipeline"
	kernelcalls "github.com/satlayer/vesting-claim/claim-api/metrics/indicators/kernel_calls"
	transactionprocess "github.com/satlayer/vesting-claim/claim-api/metrics/indicators/transaction_process"
	"github.com/satlayer/vesting-claim/claim-api/utils"
)

const (
	MetricsPath = "/metrics"
	ReadyPath   = "/readyz"

	readyTimeout = 3 * time.Second
)

// Indicators groups every collector a claim process reports into. They all
// share Registry.
type Indicators struct {
	Registry *prometheus.Registry
	Tx       *transactionprocess.PromIndicators
	Kernel   *kernelcalls.PromIndicators
	Pipeline *claimpipeline.PromIndicators
}

func NewIndicators(appName string) *Indicators {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Indicators{
		Registry: reg,
		Tx:       transactionprocess.NewPromIndicators(reg, "vesting_vault"),
		Kernel:   kernelcalls.NewPromIndicators(appName, reg),
		Pipeline: claimpipeline.NewPromIndicators(appName, reg),
	}
}

// ReadyFunc reports whether the pipeline can reach what it depends on.
type ReadyFunc func(ctx context.Context) error

type Server struct {
	addr     string
	gatherer prometheus.Gatherer
	ready    ReadyFunc
	logger   logger.Logger
}

// NewServer serves gatherer on MetricsPath and ready on ReadyPath. A nil
// ready always reports ready.
func NewServer(addr string, gatherer prometheus.Gatherer, ready ReadyFunc, l logger.Logger) *Server {
	return &Server{addr: addr, gatherer: gatherer, ready: ready, logger: l}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc(ReadyPath, s.serveReady)
	return mux
}

func (s *Server) serveReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.Warn("Readiness check failed", logger.WithError(err))
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// Start serves until ctx is done. The returned channel carries a listener
// failure, or is closed once shutdown completes.
func (s *Server) Start(ctx context.Context) <-chan error {
	s.logger.Info("Starting metrics server", logger.WithField("addr", s.addr))
	errChan := make(chan error, 1)
	httpServer := &http.Server{Addr: s.addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		defer close(errChan)
		if err := httpServer.Shutdown(context.Background()); err != nil {
			errChan <- err
		}
		s.logger.Info("Metrics server stopped")
	}()

	go func() {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- utils.WrapError("metrics server failed", err)
		}
	}()
	return errChan
}
