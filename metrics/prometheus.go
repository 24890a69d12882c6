package metrics

import (
	"github.com/jmgilman/go/errors"
	"github.com/krisalay/keshi/types"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusConfig names and registers the exported collectors.
type PrometheusConfig struct {
	// Registerer defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer

	// Namespace defaults to "keshi".
	Namespace string

	ConstLabels prometheus.Labels
}

// Prometheus exports cache events as Prometheus counters.
type Prometheus struct {
	events  *prometheus.CounterVec
	sweeps  prometheus.Counter
	removed prometheus.Counter
}

var _ types.Metrics = (*Prometheus)(nil)

// NewPrometheus creates and registers the collectors.
func NewPrometheus(cfg PrometheusConfig) (*Prometheus, error) {
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "keshi"
	}

	p := &Prometheus{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "events_total",
			Help:        "Cache events by kind: hit, miss, expire, shared, failure.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"event"}),
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "sweeps_total",
			Help:        "Completed background sweep passes.",
			ConstLabels: cfg.ConstLabels,
		}),
		removed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "swept_entries_total",
			Help:        "Expired entries removed by the background sweep.",
			ConstLabels: cfg.ConstLabels,
		}),
	}

	for _, c := range []prometheus.Collector{p.events, p.sweeps, p.removed} {
		if err := cfg.Registerer.Register(c); err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "register prometheus collector")
		}
	}
	return p, nil
}

func (p *Prometheus) Hit()     { p.events.WithLabelValues("hit").Inc() }
func (p *Prometheus) Miss()    { p.events.WithLabelValues("miss").Inc() }
func (p *Prometheus) Expire()  { p.events.WithLabelValues("expire").Inc() }
func (p *Prometheus) Shared()  { p.events.WithLabelValues("shared").Inc() }
func (p *Prometheus) Failure() { p.events.WithLabelValues("failure").Inc() }

func (p *Prometheus) Sweep(removed int) {
	p.sweeps.Inc()
	p.removed.Add(float64(removed))
}
