package engine

import (
	"testing"
	"time"

	"giracore/pkg/domain"
)

func TestStopAppliesAdditive(t *testing.T) {
	ctx := fixtureContext()
	m := fixtureMusician("m1", 11)
	ev := fixtureStopEvent("e1", "t1", domain.StopBoarding, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))

	rules := []StopRule{
		{ID: "s1", StopEventID: "e1", Target: domain.LocalityTarget(99)},
		{ID: "s2", StopEventID: "e1", Target: domain.RegionTarget(1)},
	}
	if !StopApplies(rules, ev, m, ctx) {
		t.Fatalf("one matching rule suffices")
	}
	if StopApplies(rules[:1], ev, m, ctx) {
		t.Fatalf("non-matching rules must not attach the event")
	}
	other := fixtureStopEvent("e2", "t1", domain.StopBoarding, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	if StopApplies(rules, other, m, ctx) {
		t.Fatalf("rules are bound to their event")
	}
}

func TestResolveStopsEarliestBoardingLatestAlighting(t *testing.T) {
	ctx := fixtureContext()
	m := fixtureMusician("m1", 11)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	events := []StopEvent{
		fixtureStopEvent("b2", "t1", domain.StopBoarding, day.Add(10*time.Hour)),
		fixtureStopEvent("b1", "t1", domain.StopBoarding, day.Add(8*time.Hour)),
		fixtureStopEvent("a1", "t1", domain.StopAlighting, day.Add(18*time.Hour)),
		fixtureStopEvent("a2", "t1", domain.StopAlighting, day.Add(22*time.Hour)),
		fixtureStopEvent("x1", "t2", domain.StopBoarding, day.Add(6*time.Hour)),
	}
	rules := []StopRule{
		{ID: "s1", StopEventID: "b1", Target: domain.GeneralTarget()},
		{ID: "s2", StopEventID: "b2", Target: domain.GeneralTarget()},
		{ID: "s3", StopEventID: "a1", Target: domain.GeneralTarget()},
		{ID: "s4", StopEventID: "a2", Target: domain.GeneralTarget()},
		{ID: "s5", StopEventID: "x1", Target: domain.GeneralTarget()},
	}
	boarding, alighting := ResolveStops(rules, events, "t1", m, ctx)
	if boarding != "b1" {
		t.Fatalf("expected earliest matching boarding b1, got %q", boarding)
	}
	if alighting != "a2" {
		t.Fatalf("expected latest matching alighting a2, got %q", alighting)
	}
}

func TestResolveStopsNoMatch(t *testing.T) {
	ctx := fixtureContext()
	m := fixtureMusician("m1", 20)
	events := []StopEvent{
		fixtureStopEvent("b1", "t1", domain.StopBoarding, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)),
	}
	rules := []StopRule{
		{ID: "s1", StopEventID: "b1", Target: domain.LocalityTarget(11)},
	}
	boarding, alighting := ResolveStops(rules, events, "t1", m, ctx)
	if boarding != "" || alighting != "" {
		t.Fatalf("no matching stop rule must leave both boundaries empty")
	}
}
