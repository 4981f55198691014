package engine

import (
	"fmt"
	"sort"

	"giracore/pkg/domain"
)

// Admission is the resolved outcome for one member on one vehicle.
type Admission struct {
	Admitted bool
	Vetoed   bool
	// Source identifies the scope of the winning rule when one applied.
	Source domain.Scope
	RuleID string
}

// AdmissionCheck augments an admission with cross-vehicle conflict data: when
// the member already holds a winning inclusion on another vehicle, OwnedBy
// names it so the caller can flag duplicate boarding instead of silently
// double-booking a seat.
type AdmissionCheck struct {
	Admission
	OwnedBy string
}

func sortAdmissionRules(rules []AdmissionRule) []AdmissionRule {
	sorted := append([]AdmissionRule(nil), rules...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// ruleApplies runs the scope match plus the production carve-out: geographic
// rules do not reach staff unless the person is also a stable musician.
func ruleApplies(rule AdmissionRule, m Member, ctx TourContext) bool {
	if rule.Target.Geographic() && m.IsStaff() && !m.StableMusician() {
		return false
	}
	return rule.Target.AppliesTo(m, ctx)
}

// ResolveAdmission resolves one member against one vehicle. Among the
// vehicle's applicable rules the highest priority wins; an EXCLUSION winner
// vetoes the vehicle outright. Rules are sorted before resolution, so the
// outcome does not depend on insertion order.
func ResolveAdmission(rules []AdmissionRule, transportID string, m Member, ctx TourContext) Admission {
	if !m.Active() {
		return Admission{}
	}
	var winner *AdmissionRule
	for _, rule := range sortAdmissionRules(rules) {
		if rule.TransportID != transportID {
			continue
		}
		if !ruleApplies(rule, m, ctx) {
			continue
		}
		r := rule
		winner = &r
	}
	if winner == nil {
		return Admission{}
	}
	if winner.Kind == domain.RuleExclusion {
		return Admission{Vetoed: true, Source: winner.Target.Scope(), RuleID: winner.ID}
	}
	return Admission{Admitted: true, Source: winner.Target.Scope(), RuleID: winner.ID}
}

// ResolveLocalityAdmission runs the same priority resolution with a
// locality's region and id substituted for a person's attributes. It is used
// to flag whole towns that lack any applicable rule on a vehicle.
func ResolveLocalityAdmission(rules []AdmissionRule, transportID string, loc Locality) Admission {
	var winner *AdmissionRule
	for _, rule := range sortAdmissionRules(rules) {
		if rule.TransportID != transportID {
			continue
		}
		if !rule.Target.AppliesToLocality(loc) {
			continue
		}
		r := rule
		winner = &r
	}
	if winner == nil {
		return Admission{}
	}
	if winner.Kind == domain.RuleExclusion {
		return Admission{Vetoed: true, Source: winner.Target.Scope(), RuleID: winner.ID}
	}
	return Admission{Admitted: true, Source: winner.Target.Scope(), RuleID: winner.ID}
}

// CheckAdmission resolves the member against a proposed vehicle while
// consulting every rule across the tour: when another vehicle already admits
// the member, the check reports that owner alongside the proposal's own
// outcome.
func CheckAdmission(rules []AdmissionRule, transports []Transport, proposedID string, m Member, ctx TourContext) AdmissionCheck {
	check := AdmissionCheck{Admission: ResolveAdmission(rules, proposedID, m, ctx)}
	for _, t := range sortedTransports(transports) {
		if t.ID == proposedID {
			continue
		}
		if ResolveAdmission(rules, t.ID, m, ctx).Admitted {
			check.OwnedBy = t.ID
			break
		}
	}
	return check
}

func sortedTransports(transports []Transport) []Transport {
	sorted := append([]Transport(nil), transports...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return sorted
}

// ResolveAssignments resolves every active member against every vehicle of
// the tour. A member admitted by more than one vehicle keeps the first
// admission in vehicle order and the duplicates surface as warnings; a member
// admitted by none simply has no assignment. Stop rules then pin the
// boarding and alighting events on the assigned vehicle.
func ResolveAssignments(snapshot TourSnapshot) (map[string]TransportAssignment, Result) {
	assignments := make(map[string]TransportAssignment)
	var res Result
	transports := sortedTransports(snapshot.Transports)
	for _, m := range snapshot.Roster {
		if !m.Active() {
			continue
		}
		var owner string
		for _, t := range transports {
			adm := ResolveAdmission(snapshot.Rules.Admission, t.ID, m, snapshot.Context)
			if !adm.Admitted {
				continue
			}
			if owner == "" {
				owner = t.ID
				boarding, alighting := ResolveStops(snapshot.Rules.Stops, snapshot.StopEvents, t.ID, m, snapshot.Context)
				assignments[m.ID] = TransportAssignment{
					TransportID:      t.ID,
					BoardingEventID:  boarding,
					AlightingEventID: alighting,
				}
				continue
			}
			res.Violations = append(res.Violations, Violation{
				Check:    "transport_conflict",
				Severity: SeverityWarn,
				Message:  fmt.Sprintf("member %s already boards transport %s, also admitted by %s", m.ID, owner, t.ID),
				Entity:   EntityMember,
				EntityID: m.ID,
			})
		}
	}
	return assignments, res
}
