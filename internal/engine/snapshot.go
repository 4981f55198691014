package engine

import (
	"sort"

	"giracore/pkg/domain"
)

// BuildTourSnapshot assembles the immutable resolution input for one tour
// from a store view: its roster, vehicles, events, rule families, and the
// catalog context. Returns false when the tour does not exist.
func BuildTourSnapshot(view domain.TransactionView, tourID string) (TourSnapshot, bool) {
	tour, ok := view.FindTour(tourID)
	if !ok {
		return TourSnapshot{}, false
	}

	snapshot := TourSnapshot{Tour: tour, Roster: []Member{}}
	for _, m := range view.ListMembers() {
		if m.TourID == tourID {
			snapshot.Roster = append(snapshot.Roster, m)
		}
	}

	transportIDs := make(map[string]bool)
	for _, t := range view.ListTransports() {
		if t.TourID == tourID {
			snapshot.Transports = append(snapshot.Transports, t)
			transportIDs[t.ID] = true
		}
	}
	stopEventIDs := make(map[string]bool)
	for _, e := range view.ListStopEvents() {
		if transportIDs[e.TransportID] {
			snapshot.StopEvents = append(snapshot.StopEvents, e)
			stopEventIDs[e.ID] = true
		}
	}
	for _, r := range view.ListAdmissionRules() {
		if transportIDs[r.TransportID] {
			snapshot.Rules.Admission = append(snapshot.Rules.Admission, r)
		}
	}
	for _, r := range view.ListLogisticsRules() {
		if r.TourID == tourID {
			snapshot.Rules.Logistics = append(snapshot.Rules.Logistics, r)
		}
	}
	for _, r := range view.ListStopRules() {
		if stopEventIDs[r.StopEventID] {
			snapshot.Rules.Stops = append(snapshot.Rules.Stops, r)
		}
	}

	ctx := TourContext{
		Localities:         make(map[int64]Locality),
		HomeLocalityIDs:    make(map[int64]bool),
		ExportedLocalities: make(map[int64]bool),
	}
	for _, l := range view.ListLocalities() {
		ctx.Localities[l.ID] = l
	}
	for _, id := range tour.HomeLocalityIDs {
		ctx.HomeLocalityIDs[id] = true
	}
	for _, id := range tour.ExportedLocalityIDs {
		ctx.ExportedLocalities[id] = true
	}
	for _, e := range view.ListMealEvents() {
		if e.TourID == tourID {
			ctx.MealEvents = append(ctx.MealEvents, e)
		}
	}
	sort.Slice(snapshot.Roster, func(i, j int) bool { return snapshot.Roster[i].ID < snapshot.Roster[j].ID })
	sort.Slice(ctx.MealEvents, func(i, j int) bool {
		if ctx.MealEvents[i].Date != ctx.MealEvents[j].Date {
			return ctx.MealEvents[i].Date < ctx.MealEvents[j].Date
		}
		return ctx.MealEvents[i].ID < ctx.MealEvents[j].ID
	})
	snapshot.Context = ctx
	return snapshot, true
}
