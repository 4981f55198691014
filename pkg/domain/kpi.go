package domain

// SectionKey identifies one planning section of a tour.
type SectionKey string

// Planning sections reported on.
const (
	SectionRoster    SectionKey = "ROSTER"
	SectionRooming   SectionKey = "ROOMING"
	SectionTransport SectionKey = "TRANSPORTE"
	SectionPerDiem   SectionKey = "VIATICOS"
	SectionMeals     SectionKey = "MEALS"
)

// KPIColor signals the completion state of a section.
type KPIColor string

// Completion colors.
const (
	ColorRed   KPIColor = "red"
	ColorAmber KPIColor = "amber"
	ColorGreen KPIColor = "green"
	ColorGray  KPIColor = "gray"
)

// KPIEntry is one value displayed for a section.
type KPIEntry struct {
	Label string   `json:"label"`
	Value string   `json:"value"`
	Color KPIColor `json:"color"`
}

// SectionReport is the computed summary of one planning section. A nil report
// means "not yet computable" and is distinct from a computed zero.
type SectionReport struct {
	KPI     []KPIEntry     `json:"kpi"`
	Tooltip string         `json:"tooltip"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// KPIReport maps section keys to their computed summaries.
type KPIReport map[SectionKey]*SectionReport

// TourSnapshot is the immutable input of one resolution pass: the roster,
// the rule families, the vehicles with their stop events, and the catalog
// context. The core never mutates a snapshot.
type TourSnapshot struct {
	Tour       Tour
	Roster     []Member
	Transports []Transport
	StopEvents []StopEvent
	Rules      RuleSnapshot
	Context    TourContext
}
