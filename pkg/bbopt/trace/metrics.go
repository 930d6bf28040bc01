package trace

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/operator-framework/bbopt/pkg/bbopt"
)

const namespace = "bbopt"

// Metrics exports search progress to prometheus. Gauges hold the state
// of the most recent iteration. A Metrics must not trace concurrent
// searches; sequential ones add up in the counters.
type Metrics struct {
	nodes          *prometheus.CounterVec
	depth          prometheus.Histogram
	solverFailures prometheus.Counter
	incumbent      prometheus.Gauge
	lowerBound     prometheus.Gauge
	gap            prometheus.Gauge
	open           prometheus.Gauge

	failures int
	last     *bbopt.State
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		nodes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_processed_total",
			Help:      "Nodes processed, by what became of them",
		}, []string{"fate"}),
		depth: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_depth",
			Help:      "Depth of processed nodes",
			Buckets:   prometheus.LinearBuckets(0, 5, 12),
		}),
		solverFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solver_failures_total",
			Help:      "Bounding calls whose subsolver failed",
		}),
		incumbent: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "incumbent",
			Help:      "Best feasible objective found, minimization form",
		}),
		lowerBound: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lower_bound",
			Help:      "Certified lower bound, minimization form",
		}),
		gap: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gap",
			Help:      "Absolute optimality gap",
		}),
		open: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_nodes",
			Help:      "Nodes waiting in the store",
		}),
	}
}

func (m *Metrics) Trace(p bbopt.SearchPosition) {
	n, st := p.Node(), p.State()
	if st != m.last {
		m.last, m.failures = st, 0
	}
	m.nodes.WithLabelValues(p.Fate().String()).Inc()
	m.depth.Observe(float64(n.Depth))
	if d := st.SolverFailures - m.failures; d > 0 {
		m.solverFailures.Add(float64(d))
	}
	m.failures = st.SolverFailures

	m.incumbent.Set(st.Incumbent)
	m.lowerBound.Set(st.GlobalLower)
	m.gap.Set(st.Gap())
	m.open.Set(float64(st.StoreSize))
}
