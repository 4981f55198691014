package engine

import (
	"context"

	"giracore/pkg/domain"
)

// NewTransportConflictCheck returns the in-transaction check that flags
// members admitted by inclusion rules on more than one vehicle of a tour.
func NewTransportConflictCheck() Check {
	return transportConflictCheck{}
}

type transportConflictCheck struct{}

func (transportConflictCheck) Name() string { return "transport_conflict" }

func (transportConflictCheck) Evaluate(_ context.Context, view domain.TransactionView, _ []Change) (Result, error) {
	var res Result
	for _, tour := range view.ListTours() {
		snapshot, ok := BuildTourSnapshot(view, tour.ID)
		if !ok {
			continue
		}
		_, conflicts := ResolveAssignments(snapshot)
		res.Merge(conflicts)
	}
	return res, nil
}
