package trace

// TraceSummary aggregates statistics from a PlanningTrace.
type TraceSummary struct {
	TotalDecisions        int
	OutcomeCounts         map[Outcome]int
	TotalColorRotations   int
	MaxColorRotations     int
	MeanRejectedElevation float64        // mean elevation of not_visible candidates
	UniqueSatellites      int            // satellites that granted at least one beam
	SatelliteDistribution map[string]int // sat ID → beams granted
}

// Summarize computes aggregate statistics from a PlanningTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(pt *PlanningTrace) *TraceSummary {
	summary := &TraceSummary{
		OutcomeCounts:         make(map[Outcome]int),
		SatelliteDistribution: make(map[string]int),
	}
	if pt == nil {
		return summary
	}

	summary.TotalDecisions = len(pt.Decisions)
	elevationSum := 0.0
	for _, d := range pt.Decisions {
		summary.OutcomeCounts[d.Outcome]++
		summary.TotalColorRotations += d.ColorRotations
		if d.ColorRotations > summary.MaxColorRotations {
			summary.MaxColorRotations = d.ColorRotations
		}
		switch d.Outcome {
		case OutcomeAssigned:
			summary.SatelliteDistribution[d.SatID]++
		case OutcomeNotVisible:
			elevationSum += d.ElevationDeg
		}
	}
	if n := summary.OutcomeCounts[OutcomeNotVisible]; n > 0 {
		summary.MeanRejectedElevation = elevationSum / float64(n)
	}

	summary.UniqueSatellites = len(summary.SatelliteDistribution)

	return summary
}
