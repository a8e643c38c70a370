package service

import (
	"github.com/ludo-technologies/qgate/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsExporter publishes gate results as Prometheus gauges
type MetricsExporter struct {
	registry       *prometheus.Registry
	gatePassed     *prometheus.GaugeVec
	gateMetric     *prometheus.GaugeVec
	gateThreshold  *prometheus.GaugeVec
	averageQuality prometheus.Gauge
}

// NewMetricsExporter creates an exporter with its own registry
func NewMetricsExporter() *MetricsExporter {
	e := &MetricsExporter{
		registry: prometheus.NewRegistry(),
		gatePassed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "qgate_gate_passed",
			Help: "1 if the quality gate passed, 0 otherwise.",
		}, []string{"gate", "outcome"}),
		gateMetric: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "qgate_gate_metric",
			Help: "Measured value of the quality gate metric.",
		}, []string{"gate"}),
		gateThreshold: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "qgate_gate_threshold",
			Help: "Threshold the quality gate metric is compared against.",
		}, []string{"gate", "direction"}),
		averageQuality: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "qgate_average_quality",
			Help: "Average quality score over the available analyses.",
		}),
	}
	e.registry.MustRegister(e.gatePassed, e.gateMetric, e.gateThreshold, e.averageQuality)
	return e
}

// Registry exposes the underlying registry
func (e *MetricsExporter) Registry() *prometheus.Registry {
	return e.registry
}

// Record sets the gauges from one run. report may be nil.
func (e *MetricsExporter) Record(gates []domain.GateResult, report *domain.ConsolidatedReport) {
	e.gatePassed.Reset()
	e.gateMetric.Reset()
	e.gateThreshold.Reset()

	for _, g := range gates {
		passed := 0.0
		if g.Passed {
			passed = 1
		}
		e.gatePassed.WithLabelValues(g.Name, string(g.Outcome)).Set(passed)
		if g.Outcome != domain.OutcomeUnavailable {
			e.gateMetric.WithLabelValues(g.Name).Set(g.Metric)
		}
		e.gateThreshold.WithLabelValues(g.Name, string(g.Direction)).Set(g.Threshold)
	}
	if report != nil {
		e.averageQuality.Set(report.OverallScores.AverageQuality)
	}
}

// WriteTextfile writes the registry in the textfile-collector format
func (e *MetricsExporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return domain.NewOutputError("failed to write metrics file", err)
	}
	return nil
}
