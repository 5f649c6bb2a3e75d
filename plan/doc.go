// Package plan provides the geometric feasibility engine for satellite beam
// planning.
//
// # Reading Guide
//
// Start with these three files to understand the planning kernel:
//   - geometry.go: Point3 and the angle-between-three-points primitive
//   - predicates.go: visibility, self-interference and cross-system checks
//   - engine.go: the greedy per-satellite beam/color assignment pass
//
// # Architecture
//
// The plan package holds the pure kernel plus the scenario model and its
// loader; supporting concerns live in sub-packages:
//   - plan/trace/: per-candidate decision recording and summaries
//   - plan/observability/: Prometheus collector for a planning run
//   - plan/store/: SQLite archive of planning runs
//
// A planning run is a pure function of (Scenario, Config): Planner.Plan
// returns the ordered output records together with the set of covered users.
// Nothing is kept in package-level state.
package plan
