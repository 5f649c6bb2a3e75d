// Tracks planning-run statistics such as coverage, interference notices and
// per-satellite beam utilization.

package plan

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metrics aggregates statistics about a planning run for final reporting.
type Metrics struct {
	Satellites          int // satellites in the scenario
	Users               int // users in the scenario
	Interferers         int // non-constellation satellites in the scenario
	Assigned            int // beams granted
	InterferenceNotices int // candidates denied for cross-system interference
	UncoveredUsers      int // users with no beam anywhere

	BeamsPerSatellite map[string]int // sat ID -> beams granted
	ColorCounts       map[string]int // color letter -> beams granted

	MeanBeamUtilization float64 // mean over all satellites of granted/capacity
	MaxBeamUtilization  float64
}

// NewMetrics computes Metrics for res, produced from sc with the given
// thresholds.
func NewMetrics(sc *Scenario, res *Result, th Thresholds) *Metrics {
	m := &Metrics{
		Satellites:        len(sc.Sats),
		Users:             len(sc.Users),
		Interferers:       len(sc.Interferers),
		BeamsPerSatellite: make(map[string]int, len(sc.Sats)),
		ColorCounts:       make(map[string]int, th.ColorsPerSatellite),
	}
	for _, sat := range sc.Sats {
		m.BeamsPerSatellite[sat.ID] = 0
	}
	for _, r := range res.Records {
		switch r.Kind {
		case RecordAssigned:
			m.Assigned++
			m.BeamsPerSatellite[r.Sat]++
			m.ColorCounts[r.Color.String()]++
		case RecordInterference:
			m.InterferenceNotices++
		}
	}
	m.UncoveredUsers = m.Users - res.Covered.Len()

	if len(sc.Sats) > 0 && th.BeamsPerSatellite > 0 {
		utilization := make([]float64, 0, len(sc.Sats))
		for _, sat := range sc.Sats {
			utilization = append(utilization, float64(m.BeamsPerSatellite[sat.ID])/float64(th.BeamsPerSatellite))
		}
		m.MeanBeamUtilization = stat.Mean(utilization, nil)
		m.MaxBeamUtilization = floats.Max(utilization)
	}
	return m
}

// Print displays aggregated metrics at the end of the planning run.
func (m *Metrics) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Planning Metrics ===")
	fmt.Fprintf(w, "Satellites           : %d\n", m.Satellites)
	fmt.Fprintf(w, "Users                : %d\n", m.Users)
	fmt.Fprintf(w, "Interferers          : %d\n", m.Interferers)
	fmt.Fprintf(w, "Beams Assigned       : %d\n", m.Assigned)
	fmt.Fprintf(w, "Interference Notices : %d\n", m.InterferenceNotices)
	fmt.Fprintf(w, "Uncovered Users      : %d\n", m.UncoveredUsers)
	if m.Users > 0 {
		fmt.Fprintf(w, "Coverage             : %.2f%%\n", 100*float64(m.Users-m.UncoveredUsers)/float64(m.Users))
	}
	if m.Satellites > 0 {
		fmt.Fprintf(w, "Mean Beam Utilization: %.2f%%\n", 100*m.MeanBeamUtilization)
		fmt.Fprintf(w, "Peak Beam Utilization: %.2f%%\n", 100*m.MaxBeamUtilization)
	}
	colors := make([]string, 0, len(m.ColorCounts))
	for c := range m.ColorCounts {
		colors = append(colors, c)
	}
	sort.Strings(colors)
	for _, c := range colors {
		fmt.Fprintf(w, "Color %s Beams        : %d\n", c, m.ColorCounts[c])
	}
}
