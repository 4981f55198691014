package engine

import (
	"fmt"

	"giracore/pkg/domain"
)

// MealsCalculator tracks meal confirmations. People convoked to zero meal
// events are excluded from the denominator entirely.
type MealsCalculator struct{}

// Section identifies the meals planning section.
func (MealsCalculator) Section() domain.SectionKey { return SectionMeals }

// Compute classifies each convoked member green/amber/red by how many of
// their convoked meal events they answered. The section is green only when
// every eligible member is fully green; it is amber while at least one answer
// exists, and red only when nobody answered anything.
func (MealsCalculator) Compute(snapshot TourSnapshot) *SectionReport {
	if snapshot.Roster == nil {
		return nil
	}
	var eligible, complete, partial int
	for _, m := range activeMembers(snapshot.Roster) {
		convoked := ConvokedMealEvents(snapshot.Context, m)
		if len(convoked) == 0 {
			continue
		}
		eligible++
		answered := 0
		for _, ev := range convoked {
			if _, ok := ev.Answers[m.ID]; ok {
				answered++
			}
		}
		switch {
		case answered == len(convoked):
			complete++
		case answered > 0:
			partial++
		}
	}
	if eligible == 0 {
		return &SectionReport{
			KPI:     []KPIEntry{{Label: "Comidas", Value: "0/0", Color: ColorGray}},
			Tooltip: "Sin eventos de comida convocados",
		}
	}
	color := ColorRed
	switch {
	case complete == eligible:
		color = ColorGreen
	case complete > 0 || partial > 0:
		color = ColorAmber
	}
	return &SectionReport{
		KPI:     []KPIEntry{{Label: "Comidas", Value: fmt.Sprintf("%d/%d", complete, eligible), Color: color}},
		Tooltip: fmt.Sprintf("%d completos, %d parciales, %d sin respuesta", complete, partial, eligible-complete-partial),
	}
}
