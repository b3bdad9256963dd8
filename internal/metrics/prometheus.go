package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "yodascan"

// PrometheusRecorder implements Recorder on a private registry.
type PrometheusRecorder struct {
	reg           *prom.Registry
	pointDuration prom.Histogram
	pointResults  *prom.CounterVec
	runDuration   prom.Gauge
	runOutcome    *prom.CounterVec
	histograms    prom.Gauge
	bins          prom.Gauge
	columns       prom.Gauge
}

// NewPrometheusRecorder constructs and registers the run metrics. A nil
// registry gets a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		pointDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "point_duration_seconds",
			Help:      "Time spent extracting and aggregating one scan point",
			Buckets:   prom.ExponentialBuckets(0.001, 2, 12),
		}),
		pointResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "points_total",
			Help:      "Scan points by result",
		}, []string{"result"}),
		runDuration: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last scan run",
		}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Scan runs by outcome",
		}, []string{"outcome"}),
		histograms: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "table_histograms",
			Help:      "Tracked histograms in the finished table",
		}),
		bins: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "table_bins",
			Help:      "Total bins over all histograms in the finished table",
		}),
		columns: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "table_columns",
			Help:      "Value columns (valid scan points) in the finished table",
		}),
	}
	reg.MustRegister(pr.pointDuration, pr.pointResults, pr.runDuration, pr.runOutcome,
		pr.histograms, pr.bins, pr.columns)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.reg
}

func (p *PrometheusRecorder) ObservePointDuration(d time.Duration) {
	p.pointDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPointResult(result PointResult) {
	p.pointResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	p.runDuration.Set(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome Outcome) {
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetTableShape(histograms, bins, columns int) {
	p.histograms.Set(float64(histograms))
	p.bins.Set(float64(bins))
	p.columns.Set(float64(columns))
}

// WriteTextfile writes the gathered metrics to path in the text exposition
// format. The file is replaced atomically.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
