package engine

import "giracore/pkg/domain"

// Calculator computes the completion summary of one planning section. A nil
// report means the section is not yet computable from the snapshot.
type Calculator interface {
	Section() domain.SectionKey
	Compute(snapshot TourSnapshot) *SectionReport
}

// KPIEngine runs a set of section calculators over one snapshot.
type KPIEngine struct {
	calculators []Calculator
}

// NewKPIEngine constructs an empty engine instance.
func NewKPIEngine() *KPIEngine {
	return &KPIEngine{}
}

// NewDefaultKPIEngine builds an engine with the built-in section set.
func NewDefaultKPIEngine() *KPIEngine {
	engine := NewKPIEngine()
	engine.Register(RosterCalculator{})
	engine.Register(RoomingCalculator{})
	engine.Register(TransportCalculator{})
	engine.Register(PerDiemCalculator{})
	engine.Register(MealsCalculator{})
	return engine
}

// Register appends a calculator to the engine.
func (e *KPIEngine) Register(c Calculator) {
	e.calculators = append(e.calculators, c)
}

// Compute evaluates all registered calculators. Sections whose calculator
// returns nil are present in the report with a nil value so callers can
// distinguish "not yet computable" from "complete".
func (e *KPIEngine) Compute(snapshot TourSnapshot) KPIReport {
	report := make(KPIReport, len(e.calculators))
	for _, c := range e.calculators {
		report[c.Section()] = c.Compute(snapshot)
	}
	return report
}

// activeMembers filters the roster down to members that participate in
// eligibility computations.
func activeMembers(roster []Member) []Member {
	var out []Member
	for _, m := range roster {
		if m.Active() {
			out = append(out, m)
		}
	}
	return out
}
