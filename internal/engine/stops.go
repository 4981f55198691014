package engine

import (
	"sort"

	"giracore/pkg/domain"
)

// StopApplies reports whether any stop rule attaches the event to the member.
// Stop rules are additive: a single match suffices and there is no priority
// or exclusion among them.
func StopApplies(rules []StopRule, ev StopEvent, m Member, ctx TourContext) bool {
	for _, rule := range rules {
		if rule.StopEventID != ev.ID {
			continue
		}
		if rule.Target.AppliesTo(m, ctx) {
			return true
		}
	}
	return false
}

// ResolveStops picks the member's boarding and alighting events on one
// vehicle: the earliest matching boarding and the latest matching alighting,
// by schedule time with the event id as tiebreak. Either may be empty when no
// stop rule matches.
func ResolveStops(rules []StopRule, events []StopEvent, transportID string, m Member, ctx TourContext) (boardingID, alightingID string) {
	sorted := append([]StopEvent(nil), events...)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].At.Equal(sorted[j].At) {
			return sorted[i].At.Before(sorted[j].At)
		}
		return sorted[i].ID < sorted[j].ID
	})
	for _, ev := range sorted {
		if ev.TransportID != transportID || !StopApplies(rules, ev, m, ctx) {
			continue
		}
		switch ev.Kind {
		case domain.StopBoarding:
			if boardingID == "" {
				boardingID = ev.ID
			}
		case domain.StopAlighting:
			alightingID = ev.ID
		}
	}
	return boardingID, alightingID
}
