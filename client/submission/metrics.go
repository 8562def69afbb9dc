package submission

import (
	"time"

	"crpt-client/client/submission/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics agrupa os coletores Prometheus do cliente. Um *Metrics nil é válido e não registra nada.
type Metrics struct {
	submissions *prometheus.CounterVec
	postLatency prometheus.Histogram
}

// NewMetrics cria e registra os coletores em reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crpt_submissions_total",
				Help: "Total number of document submissions by outcome",
			},
			[]string{"outcome"},
		),
		postLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crpt_submission_duration_seconds",
				Help:    "Latency of admitted POSTs to the registry in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	for _, c := range []prometheus.Collector{m.submissions, m.postLatency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	// séries com zero explícito para todos os resultados
	for _, o := range domain.Outcomes {
		m.submissions.WithLabelValues(string(o))
	}
	return m, nil
}

func (m *Metrics) observe(o domain.Outcome) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(string(o)).Inc()
}

func (m *Metrics) observePost(d time.Duration) {
	if m == nil {
		return
	}
	m.postLatency.Observe(d.Seconds())
}
