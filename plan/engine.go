package plan

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/beam-planning/beamplan/plan/trace"
)

// RecordKind distinguishes granted beams from interference notices.
type RecordKind int

const (
	RecordAssigned RecordKind = iota
	RecordInterference
)

func (k RecordKind) String() string {
	if k == RecordInterference {
		return "interference"
	}
	return "assigned"
}

// ParseRecordKind converts the String form of a RecordKind back.
func ParseRecordKind(s string) (RecordKind, error) {
	switch s {
	case "assigned":
		return RecordAssigned, nil
	case "interference":
		return RecordInterference, nil
	}
	return 0, fmt.Errorf("unknown record kind %q", s)
}

// Record is one line of planner output.
type Record struct {
	Kind  RecordKind
	Sat   string
	Beam  int
	User  string
	Color Color // meaningful only for RecordAssigned
}

func (r Record) String() string {
	if r.Kind == RecordInterference {
		return fmt.Sprintf("sat %s beam %d user %s Interference", r.Sat, r.Beam, r.User)
	}
	return fmt.Sprintf("sat %s beam %d user %s color %s", r.Sat, r.Beam, r.User, r.Color)
}

// WriteRecords writes one output line per record.
func WriteRecords(w io.Writer, records []Record) error {
	for _, r := range records {
		if _, err := fmt.Fprintln(w, r.String()); err != nil {
			return err
		}
	}
	return nil
}

// CoveredSet is the set of user IDs that hold a beam somewhere in the
// constellation.
type CoveredSet map[string]struct{}

// NewCoveredSet creates an empty CoveredSet.
func NewCoveredSet() CoveredSet { return make(CoveredSet) }

// Add marks a user as covered.
func (c CoveredSet) Add(id string) {
	c[id] = struct{}{}
}

// Contains reports whether the user already holds a beam.
func (c CoveredSet) Contains(id string) bool {
	_, ok := c[id]
	return ok
}

// Len returns the number of covered users.
func (c CoveredSet) Len() int {
	return len(c)
}

// Result is the outcome of one planning run.
type Result struct {
	Records []Record   // in emission order
	Covered CoveredSet // users with a granted beam
	Trace   *trace.PlanningTrace
}

// Assignments returns only the granted-beam records.
func (r *Result) Assignments() []Record {
	out := make([]Record, 0, len(r.Records))
	for _, rec := range r.Records {
		if rec.Kind == RecordAssigned {
			out = append(out, rec)
		}
	}
	return out
}

// Planner runs the greedy beam/color assignment.
type Planner struct {
	cfg   Config
	trace trace.TraceConfig
}

// NewPlanner creates a Planner. cfg is assumed to have passed Validate.
func NewPlanner(cfg Config, traceConfig trace.TraceConfig) *Planner {
	return &Planner{cfg: cfg, trace: traceConfig}
}

// Plan visits satellites in scenario order and, per satellite, users in
// scenario order, granting each feasible uncovered user the next beam and a
// conflict-free color. A geometry fault aborts the run with no result.
func (p *Planner) Plan(ctx context.Context, sc *Scenario) (*Result, error) {
	table := NewFeasibilityTable(ctx, sc, p.cfg.Thresholds, p.cfg.EffectiveWorkers())
	defer table.Close()

	res := &Result{
		Records: make([]Record, 0),
		Covered: NewCoveredSet(),
		Trace:   trace.NewPlanningTrace(p.trace),
	}
	for si, sat := range sc.Sats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := table.Row(ctx, si)
		if err != nil {
			return nil, err
		}
		err = p.planSatellite(sc, table, row, sat, res)
		table.Release(row)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// grantedBeam is a beam already placed on the satellite being planned.
type grantedBeam struct {
	user  Point3
	color Color
}

func (p *Planner) planSatellite(sc *Scenario, table *FeasibilityTable, row *FeasibilityRow, sat Entity, res *Result) error {
	th := p.cfg.Thresholds
	beam := 1
	cursor := Color(0)
	granted := make([]grantedBeam, 0, th.BeamsPerSatellite)

	for ui, user := range sc.Users {
		if res.Covered.Contains(user.ID) {
			continue
		}
		if beam > th.BeamsPerSatellite {
			logrus.Debugf("sat %s: all %d beams granted, moving on", sat.ID, th.BeamsPerSatellite)
			res.Trace.Record(trace.DecisionRecord{SatID: sat.ID, Beam: beam, Outcome: trace.OutcomeCapacityExhausted})
			return nil
		}

		color, rotations, ok, err := p.selectColor(sat.Pos, user.Pos, granted, cursor)
		if err != nil {
			return fmt.Errorf("sat %s user %s: self-interference: %w", sat.ID, user.ID, err)
		}
		if !ok {
			logrus.Debugf("sat %s user %s: every color conflicts with an existing beam", sat.ID, user.ID)
			res.Trace.Record(trace.DecisionRecord{SatID: sat.ID, UserID: user.ID, Beam: beam,
				Outcome: trace.OutcomeSelfInterference, ColorRotations: rotations})
			continue
		}

		visible, angle, err := row.Visible(ui)
		if err != nil {
			return fmt.Errorf("sat %s user %s: visibility: %w", sat.ID, user.ID, err)
		}
		if !visible {
			res.Trace.Record(trace.DecisionRecord{SatID: sat.ID, UserID: user.ID, Beam: beam,
				Outcome: trace.OutcomeNotVisible, ElevationDeg: angle - 90.0})
			continue
		}

		interfered, err := row.Interfered(ui)
		if err != nil {
			return fmt.Errorf("sat %s user %s: cross-system interference: %w", sat.ID, user.ID, err)
		}
		if interfered {
			res.Records = append(res.Records, Record{Kind: RecordInterference, Sat: sat.ID, Beam: beam, User: user.ID})
			res.Trace.Record(trace.DecisionRecord{SatID: sat.ID, UserID: user.ID, Beam: beam,
				Outcome: trace.OutcomeInterference})
			continue
		}

		res.Records = append(res.Records, Record{Kind: RecordAssigned, Sat: sat.ID, Beam: beam, User: user.ID, Color: color})
		res.Covered.Add(user.ID)
		table.MarkCovered(ui)
		res.Trace.Record(trace.DecisionRecord{SatID: sat.ID, UserID: user.ID, Beam: beam,
			Outcome: trace.OutcomeAssigned, Color: color.String(), ColorRotations: rotations})
		granted = append(granted, grantedBeam{user: user.Pos, color: color})
		cursor = p.nextCursor(color)
		beam++
	}
	return nil
}

// selectColor tries each color starting at cursor and returns the first one
// that no granted beam of the same color conflicts with, plus the number of
// colors skipped. ok is false when every color conflicts.
func (p *Planner) selectColor(sat, user Point3, granted []grantedBeam, cursor Color) (Color, int, bool, error) {
	n := p.cfg.Thresholds.ColorsPerSatellite
	for rotations := 0; rotations < n; rotations++ {
		candidate := Color((int(cursor) + rotations) % n)
		conflict, err := p.conflicts(sat, user, granted, candidate)
		if err != nil {
			return 0, rotations, false, err
		}
		if !conflict {
			return candidate, rotations, true, nil
		}
	}
	return 0, n, false, nil
}

// conflicts reports whether any granted beam of the given color is within
// the self-interference angle of user. A satellite with no granted beams of
// that color has nothing to conflict with.
func (p *Planner) conflicts(sat, user Point3, granted []grantedBeam, color Color) (bool, error) {
	for _, g := range granted {
		if g.color != color {
			continue
		}
		interferes, err := SelfInterferes(sat, user, g.user, p.cfg.Thresholds)
		if err != nil {
			return false, err
		}
		if interferes {
			return true, nil
		}
	}
	return false, nil
}

func (p *Planner) nextCursor(granted Color) Color {
	if p.cfg.ColorAdvance == ColorAdvanceOnConflict {
		return granted
	}
	return Color((int(granted) + 1) % p.cfg.Thresholds.ColorsPerSatellite)
}
