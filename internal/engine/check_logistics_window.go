package engine

import (
	"context"
	"fmt"

	"giracore/pkg/domain"
)

// NewLogisticsWindowCheck returns the in-transaction check that flags
// resolved check-out dates earlier than the resolved check-in.
func NewLogisticsWindowCheck() Check {
	return logisticsWindowCheck{}
}

type logisticsWindowCheck struct{}

func (logisticsWindowCheck) Name() string { return "logistics_window" }

func (logisticsWindowCheck) Evaluate(_ context.Context, view domain.TransactionView, _ []Change) (Result, error) {
	var res Result
	for _, tour := range view.ListTours() {
		snapshot, ok := BuildTourSnapshot(view, tour.ID)
		if !ok {
			continue
		}
		for memberID, window := range ResolveLogisticsMap(snapshot) {
			if window.Checkin == nil || window.Checkout == nil {
				continue
			}
			// Dates are ISO strings, so lexical comparison is chronological.
			if *window.Checkout < *window.Checkin {
				res.Violations = append(res.Violations, Violation{
					Check:    "logistics_window",
					Severity: SeverityWarn,
					Message:  fmt.Sprintf("member %s checks out %s before check-in %s", memberID, *window.Checkout, *window.Checkin),
					Entity:   EntityMember,
					EntityID: memberID,
				})
			}
		}
	}
	return res, nil
}
