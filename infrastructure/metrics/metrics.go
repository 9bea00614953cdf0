package metrics

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "shardd"

	stageLabel   = "stage"
	contentLabel = "content"
)

var (
	stageLabels   = []string{stageLabel}
	contentLabels = []string{contentLabel}
)

// Metrics records the verdicts of block validation
type Metrics struct {
	gatherer prometheus.Gatherer

	blocksAccepted      *prometheus.CounterVec
	blocksRejected      *prometheus.CounterVec
	transactionsChecked prometheus.Counter
	checkDuration       prometheus.Histogram
}

// New registers the validation metrics with registry
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		gatherer: registry,
		blocksAccepted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "blocks_accepted",
				Help:      "number of blocks accepted",
			},
			contentLabels,
		),
		blocksRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "blocks_rejected",
				Help:      "number of blocks rejected, by the stage that rejected them",
			},
			stageLabels,
		),
		transactionsChecked: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_checked",
				Help:      "number of transactions checked",
			},
		),
		checkDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "block_check_duration_seconds",
				Help:      "time spent checking a candidate block",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
		),
	}

	for _, collector := range []prometheus.Collector{
		m.blocksAccepted, m.blocksRejected, m.transactionsChecked, m.checkDuration,
	} {
		if err := registry.Register(collector); err != nil {
			return nil, errors.Wrap(err, "failed registering a validation metric")
		}
	}
	return m, nil
}

// MarkAccepted records an accepted block carrying the given content type and
// number of transactions.
func (m *Metrics) MarkAccepted(contentType string, transactionCount int, checkDuration time.Duration) {
	m.blocksAccepted.With(prometheus.Labels{contentLabel: contentType}).Inc()
	m.transactionsChecked.Add(float64(transactionCount))
	m.checkDuration.Observe(checkDuration.Seconds())
}

// MarkRejected records a block rejected by the given stage.
func (m *Metrics) MarkRejected(stage string, checkDuration time.Duration) {
	m.blocksRejected.With(prometheus.Labels{stageLabel: stage}).Inc()
	m.checkDuration.Observe(checkDuration.Seconds())
}

// Handler returns an HTTP handler serving the metrics in the Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
