package engine

import (
	"fmt"

	"giracore/pkg/domain"
)

// TransportCalculator tracks seating completion across the whole active roster.
type TransportCalculator struct{}

// Section identifies the transport planning section.
func (TransportCalculator) Section() domain.SectionKey { return SectionTransport }

// Compute returns green when every active member holds at least one transport
// assignment, red with the missing count otherwise.
func (TransportCalculator) Compute(snapshot TourSnapshot) *SectionReport {
	if snapshot.Roster == nil {
		return nil
	}
	var eligible, missing int
	for _, m := range activeMembers(snapshot.Roster) {
		eligible++
		if len(m.Transports) == 0 {
			missing++
		}
	}
	if missing > 0 {
		return &SectionReport{
			KPI:     []KPIEntry{{Label: "Transporte", Value: fmt.Sprintf("%d", missing), Color: ColorRed}},
			Tooltip: fmt.Sprintf("%d de %d integrantes sin transporte", missing, eligible),
		}
	}
	return &SectionReport{
		KPI:     []KPIEntry{{Label: "Transporte", Value: "100%", Color: ColorGreen}},
		Tooltip: fmt.Sprintf("%d integrantes con transporte", eligible),
	}
}
