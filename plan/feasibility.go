package plan

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// dotDrift is a bounded dot product held back until its cell is consulted.
type dotDrift struct {
	dot, bounded float64
}

func replayDrift(drifts []dotDrift) {
	for _, d := range drifts {
		logDrift(d.dot, d.bounded)
	}
}

// feasibilityCell holds the predicate verdicts for one (sat, user) pair.
// Interference is only evaluated for visible pairs, matching the order in
// which the greedy pass consults them.
type feasibilityCell struct {
	visDone  bool
	visible  bool
	visAngle float64 // angle at the user between Earth center and sat
	visErr   error
	visDrift []dotDrift

	intDone    bool
	interfered bool
	intErr     error
	intDrift   []dotDrift
}

// FeasibilityTable hands out visibility and cross-system interference
// verdicts one satellite row at a time.
//
// With one worker nothing is stored: each verdict is computed when the
// engine asks for it. With more workers, rows for the next satellites are
// computed concurrently while the engine works on the current one. At most
// `workers` rows exist at once, and users already covered when a row is
// built are skipped, since the engine never asks about them again.
//
// Errors and drift diagnostics are kept per cell and only surface when the
// engine consults that cell, so a parallel run fails and logs exactly like a
// serial one.
type FeasibilityTable struct {
	sc *Scenario
	th Thresholds

	// parallel mode only
	covered []atomic.Bool
	rows    []chan *FeasibilityRow
	slots   chan struct{}
	cancel  context.CancelFunc
	g       *errgroup.Group
}

// NewFeasibilityTable prepares verdicts for sc. With workers > 1 a pipeline
// starts computing rows immediately; call Close when done.
func NewFeasibilityTable(ctx context.Context, sc *Scenario, th Thresholds, workers int) *FeasibilityTable {
	t := &FeasibilityTable{sc: sc, th: th}
	if workers <= 1 || len(sc.Sats) == 0 {
		return t
	}

	t.covered = make([]atomic.Bool, len(sc.Users))
	t.rows = make([]chan *FeasibilityRow, len(sc.Sats))
	for si := range t.rows {
		t.rows[si] = make(chan *FeasibilityRow, 1)
	}
	t.slots = make(chan struct{}, workers)

	ctx, t.cancel = context.WithCancel(ctx)
	t.g, ctx = errgroup.WithContext(ctx)
	t.g.Go(func() error {
		for si := range sc.Sats {
			select {
			case t.slots <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			t.g.Go(func() error {
				row, err := t.computeRow(ctx, si)
				if err != nil {
					return err
				}
				t.rows[si] <- row
				return nil
			})
		}
		return nil
	})
	return t
}

// Row returns the verdicts for satellite si, waiting for the pipeline if
// needed. Rows must be requested in satellite order and each one handed back
// with Release.
func (t *FeasibilityTable) Row(ctx context.Context, si int) (*FeasibilityRow, error) {
	if t.rows == nil {
		return &FeasibilityRow{sat: t.sc.Sats[si].Pos, sc: t.sc, th: t.th}, nil
	}
	select {
	case row := <-t.rows[si]:
		return row, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release frees the pipeline slot held by a row returned from Row.
func (t *FeasibilityTable) Release(row *FeasibilityRow) {
	if t.slots == nil || row == nil {
		return
	}
	row.cells = nil
	<-t.slots
}

// MarkCovered records that user ui holds a beam, so rows built from now on
// skip it.
func (t *FeasibilityTable) MarkCovered(ui int) {
	if t.covered != nil {
		t.covered[ui].Store(true)
	}
}

// Close stops the pipeline and waits for its goroutines.
func (t *FeasibilityTable) Close() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	_ = t.g.Wait()
}

func (t *FeasibilityTable) computeRow(ctx context.Context, si int) (*FeasibilityRow, error) {
	row := &FeasibilityRow{
		sat:   t.sc.Sats[si].Pos,
		sc:    t.sc,
		th:    t.th,
		cells: make([]feasibilityCell, len(t.sc.Users)),
	}
	for ui := range t.sc.Users {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if t.covered[ui].Load() {
			continue
		}
		row.evaluate(ui)
	}
	return row, nil
}

// FeasibilityRow holds the verdicts of one satellite against every user.
type FeasibilityRow struct {
	sat   Point3
	sc    *Scenario
	th    Thresholds
	cells []feasibilityCell // nil when verdicts are computed on demand
}

// Visible returns the visibility verdict and the angle at the user between
// the Earth center and the satellite.
func (r *FeasibilityRow) Visible(ui int) (bool, float64, error) {
	if r.cells == nil || !r.cells[ui].visDone {
		return visibility(r.sc.Users[ui].Pos, r.sat, r.th, logDrift)
	}
	c := &r.cells[ui]
	replayDrift(c.visDrift)
	return c.visible, c.visAngle, c.visErr
}

// Interfered returns the cross-system interference verdict.
func (r *FeasibilityRow) Interfered(ui int) (bool, error) {
	if r.cells == nil || !r.cells[ui].intDone {
		return crossSystemInterference(r.sat, r.sc.Users[ui].Pos, r.sc.Interferers, r.th, logDrift)
	}
	c := &r.cells[ui]
	replayDrift(c.intDrift)
	return c.interfered, c.intErr
}

func (r *FeasibilityRow) evaluate(ui int) {
	c := &r.cells[ui]
	user := r.sc.Users[ui].Pos

	c.visible, c.visAngle, c.visErr = visibility(user, r.sat, r.th, func(dot, bounded float64) {
		c.visDrift = append(c.visDrift, dotDrift{dot, bounded})
	})
	c.visDone = true
	if !c.visible {
		return
	}
	c.interfered, c.intErr = crossSystemInterference(r.sat, user, r.sc.Interferers, r.th, func(dot, bounded float64) {
		c.intDrift = append(c.intDrift, dotDrift{dot, bounded})
	})
	c.intDone = true
}
