package engine

import "sort"

// sortLogisticsRules orders rules ascending by priority so that later entries
// win field conflicts during the fold. The rule id breaks priority ties,
// making the outcome independent of insertion order.
func sortLogisticsRules(rules []LogisticsRule) []LogisticsRule {
	sorted := append([]LogisticsRule(nil), rules...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// ResolveLogistics derives the member's effective check-in/check-out window.
// Applicable rules are folded in ascending priority order; each rule
// overwrites only the fields it explicitly carries. When no rule applies the
// returned window is empty, meaning "no constraint" rather than an error.
func ResolveLogistics(rules []LogisticsRule, m Member, ctx TourContext) LogisticsWindow {
	var merged LogisticsWindow
	for _, rule := range sortLogisticsRules(rules) {
		if !rule.Target.AppliesTo(m, ctx) {
			continue
		}
		mergeWindow(&merged, rule.Window)
	}
	return merged
}

func mergeWindow(dst *LogisticsWindow, src LogisticsWindow) {
	if src.Checkin != nil {
		dst.Checkin = src.Checkin
	}
	if src.CheckinTime != nil {
		dst.CheckinTime = src.CheckinTime
	}
	if src.Checkout != nil {
		dst.Checkout = src.Checkout
	}
	if src.CheckoutTime != nil {
		dst.CheckoutTime = src.CheckoutTime
	}
}

// ResolveLogisticsMap resolves the window of every active roster member.
// Absent and withdrawn members carry no window.
func ResolveLogisticsMap(snapshot TourSnapshot) map[string]LogisticsWindow {
	out := make(map[string]LogisticsWindow)
	for _, m := range snapshot.Roster {
		if !m.Active() {
			continue
		}
		out[m.ID] = ResolveLogistics(snapshot.Rules.Logistics, m, snapshot.Context)
	}
	return out
}
