package engine

import "giracore/pkg/domain"

// IsConvoked reports whether the member is targeted by any of the event's
// tags. Matching is disjunctive; an empty tag list convokes nobody. The
// function is total: unknown tags simply never match.
func IsConvoked(tags []Tag, m Member) bool {
	for _, tag := range tags {
		if tag.Matches(m) {
			return true
		}
	}
	return false
}

// IsConvokedRaw parses and evaluates an unparsed tag list. Callers on a hot
// path should parse once with domain.ParseTags and use IsConvoked instead.
func IsConvokedRaw(raw []string, m Member) bool {
	return IsConvoked(domain.ParseTags(raw), m)
}

// ConvokedMealEvents returns the meal events of the context that convoke the
// member, preserving calendar order.
func ConvokedMealEvents(ctx TourContext, m Member) []MealEvent {
	var out []MealEvent
	for _, ev := range ctx.MealEvents {
		if IsConvoked(ev.Tags(), m) {
			out = append(out, ev)
		}
	}
	return out
}
