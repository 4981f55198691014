package engine

import (
	"reflect"
	"testing"

	"giracore/pkg/domain"
)

func kpiEntry(t *testing.T, report *SectionReport) KPIEntry {
	t.Helper()
	if report == nil {
		t.Fatalf("expected computed section report, got nil")
	}
	if len(report.KPI) != 1 {
		t.Fatalf("expected one kpi entry, got %d", len(report.KPI))
	}
	return report.KPI[0]
}

func TestCalculatorsNilWithoutRoster(t *testing.T) {
	empty := TourSnapshot{}
	for _, c := range []Calculator{RosterCalculator{}, RoomingCalculator{}, TransportCalculator{}, PerDiemCalculator{}, MealsCalculator{}} {
		if report := c.Compute(empty); report != nil {
			t.Errorf("%s: snapshot without roster must yield nil", c.Section())
		}
	}
}

func TestRosterCalculator(t *testing.T) {
	snapshot := TourSnapshot{Tour: Tour{Vacancies: 3}, Roster: []Member{}}
	entry := kpiEntry(t, RosterCalculator{}.Compute(snapshot))
	if entry.Value != "3" || entry.Color != ColorRed {
		t.Fatalf("open vacancies must report red count, got %+v", entry)
	}

	snapshot.Tour.Vacancies = 0
	entry = kpiEntry(t, RosterCalculator{}.Compute(snapshot))
	if entry.Value != "100%" || entry.Color != ColorGreen {
		t.Fatalf("filled roster must report green 100%%, got %+v", entry)
	}
}

func TestRoomingCalculator(t *testing.T) {
	room := "h-204"
	var roster []Member
	// Five active non-locals, three with a room.
	for i, id := range []string{"m1", "m2", "m3", "m4", "m5"} {
		m := fixtureMusician(id, 20)
		if i < 3 {
			m.RoomID = &room
		}
		roster = append(roster, m)
	}
	// Locals and inactive members stay out of the denominator.
	local := fixtureMusician("m6", 10)
	local.IsLocal = true
	absent := fixtureMusician("m7", 20)
	absent.Status = domain.MemberAbsent
	roster = append(roster, local, absent)

	entry := kpiEntry(t, RoomingCalculator{}.Compute(TourSnapshot{Roster: roster}))
	if entry.Value != "2" || entry.Color != ColorRed {
		t.Fatalf("expected red 2 missing rooms, got %+v", entry)
	}

	for i := range roster {
		roster[i].RoomID = &room
	}
	entry = kpiEntry(t, RoomingCalculator{}.Compute(TourSnapshot{Roster: roster}))
	if entry.Value != "100%" || entry.Color != ColorGreen {
		t.Fatalf("fully roomed roster must be green, got %+v", entry)
	}
}

func TestTransportCalculator(t *testing.T) {
	seated := fixtureMusician("m1", 20)
	seated.Transports = []TransportAssignment{{TransportID: "t1"}}
	unseated := fixtureMusician("m2", 20)

	entry := kpiEntry(t, TransportCalculator{}.Compute(TourSnapshot{Roster: []Member{seated, unseated}}))
	if entry.Value != "1" || entry.Color != ColorRed {
		t.Fatalf("expected red 1 missing seat, got %+v", entry)
	}

	unseated.Transports = []TransportAssignment{{TransportID: "t2"}}
	entry = kpiEntry(t, TransportCalculator{}.Compute(TourSnapshot{Roster: []Member{seated, unseated}}))
	if entry.Value != "100%" || entry.Color != ColorGreen {
		t.Fatalf("fully seated roster must be green, got %+v", entry)
	}
}

func TestPerDiemEligible(t *testing.T) {
	if PerDiemEligible(fixtureMusician("m1", 11)) {
		t.Fatalf("stable musician settles through payroll")
	}
	contracted := fixtureMusician("m2", 11)
	contracted.Condition = domain.ConditionContracted
	if !PerDiemEligible(contracted) {
		t.Fatalf("contracted musician settles by export")
	}
	if !PerDiemEligible(fixtureStaff("s1", domain.ConditionStable)) {
		t.Fatalf("stable staff is not a musician and settles by export")
	}
}

func TestPerDiemCalculator(t *testing.T) {
	// Two export-eligible people (one settled), two non-home localities (one
	// settled); the stable musician contributes a locality but no person line.
	ctx := fixtureContext()
	ctx.ExportedLocalities = map[int64]bool{11: true}

	settled := fixtureStaff("s1", domain.ConditionContracted)
	settled.LocalityID = 11
	settled.PerDiemExported = true
	pending := fixtureStaff("s2", domain.ConditionContracted)
	pending.LocalityID = 20
	stable := fixtureMusician("m1", 20)
	home := fixtureMusician("m2", 10) // home locality, excluded from locality axis

	snapshot := TourSnapshot{
		Roster:  []Member{settled, pending, stable, home},
		Context: ctx,
	}
	entry := kpiEntry(t, PerDiemCalculator{}.Compute(snapshot))
	if entry.Value != "P:1/2 L:1/2" {
		t.Fatalf("expected value P:1/2 L:1/2, got %q", entry.Value)
	}
	if entry.Color != ColorAmber {
		t.Fatalf("partial export must be amber, got %v", entry.Color)
	}

	// Fully settled goes green.
	pending.PerDiemExported = true
	ctx.ExportedLocalities[20] = true
	snapshot.Roster = []Member{settled, pending, stable, home}
	entry = kpiEntry(t, PerDiemCalculator{}.Compute(snapshot))
	if entry.Value != "P:2/2 L:2/2" || entry.Color != ColorGreen {
		t.Fatalf("fully settled per diem must be green, got %+v", entry)
	}

	// Nothing exported goes red.
	settled.PerDiemExported = false
	pending.PerDiemExported = false
	ctx.ExportedLocalities = map[int64]bool{}
	snapshot.Context = ctx
	snapshot.Roster = []Member{settled, pending, stable, home}
	entry = kpiEntry(t, PerDiemCalculator{}.Compute(snapshot))
	if entry.Color != ColorRed {
		t.Fatalf("nothing exported must be red, got %+v", entry)
	}
}

func TestMealsCalculator(t *testing.T) {
	ctx := fixtureContext()
	ctx.MealEvents = []MealEvent{
		{Base: domain.Base{ID: "e1"}, Date: "2026-03-01", RawTags: []string{"GRP:TUTTI"}, Answers: map[string]domain.MealAnswer{
			"m1": {Attends: true},
			"m2": {Attends: false},
		}},
		{Base: domain.Base{ID: "e2"}, Date: "2026-03-02", RawTags: []string{"FAM:cuerdas"}, Answers: map[string]domain.MealAnswer{
			"m1": {Attends: true},
		}},
	}
	m1 := fixtureMusician("m1", 11) // convoked to both, answered both
	m2 := fixtureStaff("m2", domain.ConditionContracted)
	m2.Family = ""                  // convoked only to e1 via TUTTI, answered it
	m3 := fixtureMusician("m3", 20) // convoked to both, answered none

	snapshot := TourSnapshot{Roster: []Member{m1, m2, m3}, Context: ctx}
	entry := kpiEntry(t, MealsCalculator{}.Compute(snapshot))
	if entry.Value != "2/3" || entry.Color != ColorAmber {
		t.Fatalf("expected amber 2/3, got %+v", entry)
	}

	// A declined answer still counts as answered.
	ctx.MealEvents[0].Answers["m3"] = domain.MealAnswer{Attends: false}
	ctx.MealEvents[1].Answers["m3"] = domain.MealAnswer{Attends: false}
	entry = kpiEntry(t, MealsCalculator{}.Compute(snapshot))
	if entry.Value != "3/3" || entry.Color != ColorGreen {
		t.Fatalf("every convoked member answered, expected green 3/3, got %+v", entry)
	}
}

func TestMealsCalculatorZeroConvoked(t *testing.T) {
	ctx := fixtureContext()
	ctx.MealEvents = []MealEvent{
		{Base: domain.Base{ID: "e1"}, Date: "2026-03-01", RawTags: []string{"FAM:percusion"}},
	}
	snapshot := TourSnapshot{Roster: []Member{fixtureMusician("m1", 11)}, Context: ctx}
	entry := kpiEntry(t, MealsCalculator{}.Compute(snapshot))
	if entry.Value != "0/0" || entry.Color != ColorGray {
		t.Fatalf("nobody convoked must be gray 0/0, got %+v", entry)
	}
}

func TestMealsCalculatorNobodyAnswered(t *testing.T) {
	ctx := fixtureContext()
	ctx.MealEvents = []MealEvent{
		{Base: domain.Base{ID: "e1"}, Date: "2026-03-01", RawTags: []string{"GRP:TUTTI"}},
	}
	snapshot := TourSnapshot{Roster: []Member{fixtureMusician("m1", 11)}, Context: ctx}
	entry := kpiEntry(t, MealsCalculator{}.Compute(snapshot))
	if entry.Value != "0/1" || entry.Color != ColorRed {
		t.Fatalf("no answers at all must be red, got %+v", entry)
	}
}

func TestKPIEngineComputeIdempotent(t *testing.T) {
	snapshot := TourSnapshot{
		Tour:    Tour{Vacancies: 1},
		Roster:  []Member{fixtureMusician("m1", 20)},
		Context: fixtureContext(),
	}
	engine := NewDefaultKPIEngine()
	first := engine.Compute(snapshot)
	second := engine.Compute(snapshot)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("recomputing the same snapshot must be identical")
	}
	for _, section := range []domain.SectionKey{SectionRoster, SectionRooming, SectionTransport, SectionPerDiem, SectionMeals} {
		if _, ok := first[section]; !ok {
			t.Fatalf("section %s missing from report", section)
		}
	}
}
