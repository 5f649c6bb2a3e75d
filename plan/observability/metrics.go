// Package observability exposes planning-run statistics as Prometheus
// metrics. A batch run has no scrape endpoint, so the collector is written to
// a node-exporter style text file.
package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/beam-planning/beamplan/plan"
)

// PlanCollector bundles Prometheus metrics for a planning run.
type PlanCollector struct {
	gatherer prometheus.Gatherer

	Records        *prometheus.CounterVec
	SatelliteBeams *prometheus.GaugeVec
	ColorBeams     *prometheus.GaugeVec
	UncoveredUsers prometheus.Gauge
	PlanDuration   prometheus.Histogram
}

// NewPlanCollector registers planning metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewPlanCollector(reg prometheus.Registerer) (*PlanCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	records, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "beamplan_records_total",
		Help: "Planner output lines, labeled by kind (assigned or interference).",
	}, []string{"kind"}), "beamplan_records_total")
	if err != nil {
		return nil, err
	}

	satBeams, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "beamplan_satellite_beams",
		Help: "Beams granted per satellite in the last run.",
	}, []string{"sat"}), "beamplan_satellite_beams")
	if err != nil {
		return nil, err
	}

	colorBeams, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "beamplan_color_beams",
		Help: "Beams granted per color in the last run.",
	}, []string{"color"}), "beamplan_color_beams")
	if err != nil {
		return nil, err
	}

	uncovered, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "beamplan_uncovered_users",
		Help: "Users left without a beam in the last run.",
	}), "beamplan_uncovered_users")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "beamplan_plan_duration_seconds",
		Help:    "Wall-clock time of the planning pass.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60},
	}), "beamplan_plan_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &PlanCollector{
		gatherer:       gatherer,
		Records:        records,
		SatelliteBeams: satBeams,
		ColorBeams:     colorBeams,
		UncoveredUsers: uncovered,
		PlanDuration:   duration,
	}, nil
}

// Observe records the statistics of one run.
func (c *PlanCollector) Observe(m *plan.Metrics, elapsed time.Duration) {
	if c == nil || m == nil {
		return
	}
	c.Records.WithLabelValues(plan.RecordAssigned.String()).Add(float64(m.Assigned))
	c.Records.WithLabelValues(plan.RecordInterference.String()).Add(float64(m.InterferenceNotices))
	for sat, n := range m.BeamsPerSatellite {
		c.SatelliteBeams.WithLabelValues(sat).Set(float64(n))
	}
	for color, n := range m.ColorCounts {
		c.ColorBeams.WithLabelValues(color).Set(float64(n))
	}
	c.UncoveredUsers.Set(float64(m.UncoveredUsers))
	c.PlanDuration.Observe(elapsed.Seconds())
}

// WriteTextfile writes every metric of the collector's registry to path in
// the Prometheus text exposition format.
func (c *PlanCollector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.gatherer); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}
