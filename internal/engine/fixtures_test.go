package engine

import (
	"time"

	"giracore/pkg/domain"
)

// Shared scenario fixtures: two regions, three localities, a small roster
// covering the role/condition combinations the resolution rules care about.

func fixtureContext() TourContext {
	return TourContext{
		Localities: map[int64]Locality{
			10: {ID: 10, RegionID: 1, Name: "Córdoba"},
			11: {ID: 11, RegionID: 1, Name: "Villa María"},
			20: {ID: 20, RegionID: 2, Name: "Rosario"},
		},
		HomeLocalityIDs:    map[int64]bool{10: true},
		ExportedLocalities: map[int64]bool{},
	}
}

func fixtureMusician(id string, locality int64) Member {
	return Member{
		Base:       domain.Base{ID: id},
		Status:     domain.MemberConfirmed,
		TourRole:   domain.RoleMusician,
		SystemRole: domain.SystemMusician,
		Condition:  domain.ConditionStable,
		LocalityID: locality,
		Family:     "cuerdas",
	}
}

func fixtureStaff(id string, condition domain.Condition) Member {
	return Member{
		Base:       domain.Base{ID: id},
		Status:     domain.MemberConfirmed,
		TourRole:   domain.RoleStaff,
		SystemRole: domain.SystemStaff,
		Condition:  condition,
		LocalityID: 11,
	}
}

func fixtureStopEvent(id, transportID string, kind domain.StopKind, at time.Time) StopEvent {
	return StopEvent{
		Base:        domain.Base{ID: id},
		TransportID: transportID,
		Kind:        kind,
		At:          at,
	}
}
