package engine

import (
	"fmt"

	"giracore/pkg/domain"
)

// RoomingCalculator tracks lodging completion. Local members sleep at home,
// so the denominator is the active non-local roster.
type RoomingCalculator struct{}

// Section identifies the rooming planning section.
func (RoomingCalculator) Section() domain.SectionKey { return SectionRooming }

// Compute returns green when every active non-local member has a room, red
// with the missing count otherwise.
func (RoomingCalculator) Compute(snapshot TourSnapshot) *SectionReport {
	if snapshot.Roster == nil {
		return nil
	}
	var eligible, missing int
	for _, m := range activeMembers(snapshot.Roster) {
		if m.IsLocal {
			continue
		}
		eligible++
		if m.RoomID == nil {
			missing++
		}
	}
	if missing > 0 {
		return &SectionReport{
			KPI:     []KPIEntry{{Label: "Habitaciones", Value: fmt.Sprintf("%d", missing), Color: ColorRed}},
			Tooltip: fmt.Sprintf("%d de %d integrantes sin habitación", missing, eligible),
		}
	}
	return &SectionReport{
		KPI:     []KPIEntry{{Label: "Habitaciones", Value: "100%", Color: ColorGreen}},
		Tooltip: fmt.Sprintf("%d integrantes alojados", eligible),
	}
}
