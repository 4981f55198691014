package engine

// State is the serializable form of the full store contents, used by durable
// backends to snapshot and hydrate the in-memory state.
type State struct {
	Tours          []Tour          `json:"tours"`
	Members        []Member        `json:"members"`
	Transports     []Transport     `json:"transports"`
	StopEvents     []StopEvent     `json:"stop_events"`
	MealEvents     []MealEvent     `json:"meal_events"`
	Localities     []Locality      `json:"localities"`
	AdmissionRules []AdmissionRule `json:"admission_rules"`
	LogisticsRules []LogisticsRule `json:"logistics_rules"`
	StopRules      []StopRule      `json:"stop_rules"`
}

// ExportState returns a deep copy of the current store contents.
func (s *MemoryStore) ExportState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view := newView(&s.state)
	return State{
		Tours:          view.ListTours(),
		Members:        view.ListMembers(),
		Transports:     view.ListTransports(),
		StopEvents:     view.ListStopEvents(),
		MealEvents:     view.ListMealEvents(),
		Localities:     view.ListLocalities(),
		AdmissionRules: view.ListAdmissionRules(),
		LogisticsRules: view.ListLogisticsRules(),
		StopRules:      view.ListStopRules(),
	}
}

// ImportState replaces the store contents with the supplied snapshot.
func (s *MemoryStore) ImportState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := newMemoryState()
	for _, t := range state.Tours {
		next.tours[t.ID] = cloneTour(t)
	}
	for _, m := range state.Members {
		next.members[m.ID] = cloneMember(m)
	}
	for _, t := range state.Transports {
		next.transports[t.ID] = t
	}
	for _, e := range state.StopEvents {
		next.stopEvents[e.ID] = e
	}
	for _, e := range state.MealEvents {
		next.mealEvents[e.ID] = cloneMealEvent(e)
	}
	for _, l := range state.Localities {
		next.localities[l.ID] = l
	}
	for _, r := range state.AdmissionRules {
		next.admissionRules[r.ID] = r
	}
	for _, r := range state.LogisticsRules {
		next.logisticsRules[r.ID] = r
	}
	for _, r := range state.StopRules {
		next.stopRules[r.ID] = r
	}
	s.state = next
}
