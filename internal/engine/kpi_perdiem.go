package engine

import (
	"fmt"

	"giracore/pkg/domain"
)

// PerDiemCalculator tracks per-diem settlement exports along two independent
// axes: eligible people and eligible localities.
type PerDiemCalculator struct{}

// Section identifies the per-diem planning section.
func (PerDiemCalculator) Section() domain.SectionKey { return SectionPerDiem }

// PerDiemEligible reports whether a member settles per diem through an
// explicit export. Members who are both stable and playing as musician or
// soloist settle through payroll instead.
func PerDiemEligible(m Member) bool {
	return !(m.Condition == domain.ConditionStable && m.IsMusician())
}

// Compute returns green only when both people and localities are fully
// exported, amber when partially exported, red when nothing has been.
func (PerDiemCalculator) Compute(snapshot TourSnapshot) *SectionReport {
	if snapshot.Roster == nil {
		return nil
	}
	var peopleEligible, peopleExported int
	localities := make(map[int64]bool)
	for _, m := range activeMembers(snapshot.Roster) {
		if PerDiemEligible(m) {
			peopleEligible++
			if m.PerDiemExported {
				peopleExported++
			}
		}
		if m.LocalityID != 0 && !snapshot.Context.HomeLocalityIDs[m.LocalityID] {
			localities[m.LocalityID] = true
		}
	}
	var locExported int
	for id := range localities {
		if snapshot.Context.ExportedLocalities[id] {
			locExported++
		}
	}

	value := fmt.Sprintf("P:%d/%d L:%d/%d", peopleExported, peopleEligible, locExported, len(localities))
	color := ColorAmber
	switch {
	case peopleExported == peopleEligible && locExported == len(localities):
		color = ColorGreen
	case peopleExported == 0 && locExported == 0:
		color = ColorRed
	}
	return &SectionReport{
		KPI:     []KPIEntry{{Label: "Viáticos", Value: value, Color: color}},
		Tooltip: fmt.Sprintf("%d/%d personas y %d/%d localidades exportadas", peopleExported, peopleEligible, locExported, len(localities)),
	}
}
