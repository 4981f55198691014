package engine

import (
	"fmt"

	"giracore/pkg/domain"
)

// RosterCalculator flags unfilled positions on the tour roster.
type RosterCalculator struct{}

// Section identifies the roster planning section.
func (RosterCalculator) Section() domain.SectionKey { return SectionRoster }

// Compute returns red with the open-seat count while vacancies remain, green
// "100%" once the roster is filled.
func (RosterCalculator) Compute(snapshot TourSnapshot) *SectionReport {
	if snapshot.Roster == nil {
		return nil
	}
	if snapshot.Tour.Vacancies > 0 {
		return &SectionReport{
			KPI:     []KPIEntry{{Label: "Vacantes", Value: fmt.Sprintf("%d", snapshot.Tour.Vacancies), Color: ColorRed}},
			Tooltip: fmt.Sprintf("%d vacantes sin cubrir", snapshot.Tour.Vacancies),
		}
	}
	return &SectionReport{
		KPI:     []KPIEntry{{Label: "Vacantes", Value: "100%", Color: ColorGreen}},
		Tooltip: "Roster completo",
	}
}
