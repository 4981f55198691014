// Package domain defines the core persistent entities, value types, and
// resolution primitives used by giracore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityTour identifies a touring program record.
	EntityTour EntityType = "tour"
	// EntityMember identifies a roster member record.
	EntityMember EntityType = "member"
	// EntityTransport identifies a physical vehicle record.
	EntityTransport EntityType = "transport"
	// EntityStopEvent identifies a boarding or alighting event record.
	EntityStopEvent EntityType = "stop_event"
	// EntityMealEvent identifies a convoked meal event record.
	EntityMealEvent EntityType = "meal_event"
	// EntityLocality identifies a locality catalog record.
	EntityLocality EntityType = "locality"
	// EntityAdmissionRule identifies a transport admission rule record.
	EntityAdmissionRule EntityType = "admission_rule"
	// EntityLogisticsRule identifies a check-in/check-out rule record.
	EntityLogisticsRule EntityType = "logistics_rule"
	// EntityStopRule identifies a stop boundary rule record.
	EntityStopRule EntityType = "stop_rule"
)

// TourStatus represents the lifecycle state of a touring program.
type TourStatus string

// Canonical tour statuses.
const (
	TourStatusDraft  TourStatus = "borrador"
	TourStatusActive TourStatus = "activa"
	TourStatusPaused TourStatus = "pausada"
)

// MemberStatus captures a person's membership state within one tour.
type MemberStatus string

// Canonical per-tour membership statuses. Absent and withdrawn members are
// removed from every eligibility computation regardless of other fields.
const (
	MemberConfirmed   MemberStatus = "confirmada"
	MemberAbsent      MemberStatus = "ausente"
	MemberWithdrawn   MemberStatus = "baja"
	MemberNotConvoked MemberStatus = "no_convocada"
)

// TourRole is the role a person plays within one tour, extensible via the
// roles catalog of the surrounding system.
type TourRole string

// Canonical tour roles.
const (
	RoleMusician TourRole = "musico"
	RoleSoloist  TourRole = "solista"
	RoleDirector TourRole = "director"
	RoleStaff    TourRole = "produccion"
	RoleDriver   TourRole = "chofer"
)

// SystemRole is the person's role in the organization, independent of any tour.
type SystemRole string

// Canonical system roles.
const (
	SystemMusician SystemRole = "MUSICO"
	SystemStaff    SystemRole = "PRODUCCION"
)

// Condition is the person's employment condition.
type Condition string

// Canonical employment conditions.
const (
	ConditionStable     Condition = "Estable"
	ConditionContracted Condition = "Contratado"
	ConditionReinforce  Condition = "Refuerzo"
	ConditionGuest      Condition = "Invitado"
	ConditionIntern     Condition = "Pasante"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Member represents one roster entry: a person enriched with the tour-scoped
// overrides (estado_gira, rol_gira) already merged in by the caller.
type Member struct {
	Base
	TourID          string                `json:"id_gira"`
	Name            string                `json:"nombre"`
	Status          MemberStatus          `json:"estado_gira"`
	TourRole        TourRole              `json:"rol_gira"`
	SystemRole      SystemRole            `json:"rol_sistema"`
	Condition       Condition             `json:"condicion"`
	IsLocal         bool                  `json:"es_local"`
	LocalityID      int64                 `json:"id_localidad"`
	Family          string                `json:"familia"`
	RoomID          *string               `json:"habitacion"`
	Transports      []TransportAssignment `json:"transportes"`
	PerDiemExported bool                  `json:"viatico_exportado"`
}

// Active reports whether the member participates in eligibility computations.
func (m Member) Active() bool {
	return m.Status == MemberConfirmed
}

// IsMusician reports whether the member performs as musician or soloist on tour.
func (m Member) IsMusician() bool {
	return m.TourRole == RoleMusician || m.TourRole == RoleSoloist
}

// IsStaff reports whether the member counts as production/staff for the
// geographic carve-out of admission rules.
func (m Member) IsStaff() bool {
	return m.SystemRole == SystemStaff || m.TourRole == RoleStaff
}

// StableMusician reports whether the member is part of the permanent playing
// roster. Geographic admission rules reach staff only through this condition.
func (m Member) StableMusician() bool {
	return m.Condition == ConditionStable && m.SystemRole == SystemMusician
}

// Locality is a catalog entry for a town a member may reside in.
type Locality struct {
	ID       int64  `json:"id"`
	RegionID int64  `json:"id_region"`
	Name     string `json:"nombre"`
}

// Transport captures one physical vehicle attached to a tour.
type Transport struct {
	Base
	TourID string `json:"id_gira"`
	Label  string `json:"detalle"`
}

// StopKind distinguishes boarding from alighting events.
type StopKind string

// Stop event kinds.
const (
	StopBoarding  StopKind = "subida"
	StopAlighting StopKind = "bajada"
)

// StopEvent is a scheduled boarding or alighting point of one transport.
type StopEvent struct {
	Base
	TransportID string    `json:"id_transporte"`
	Kind        StopKind  `json:"tipo"`
	LocalityID  int64     `json:"id_localidad"`
	At          time.Time `json:"horario"`
}

// MealAnswer records one person's reply to a convoked meal event.
type MealAnswer struct {
	Attends    bool      `json:"asiste"`
	AnsweredAt time.Time `json:"respondido"`
}

// MealEvent is a calendar meal with its convocation tags and collected answers.
type MealEvent struct {
	Base
	TourID  string                `json:"id_gira"`
	Date    string                `json:"fecha"`
	RawTags []string              `json:"etiquetas"`
	Answers map[string]MealAnswer `json:"respuestas"`
}

// Tags returns the parsed convocation tags of the event.
func (e MealEvent) Tags() []Tag {
	return ParseTags(e.RawTags)
}

// Tour represents a dated touring program.
type Tour struct {
	Base
	Name                string     `json:"nombre"`
	Status              TourStatus `json:"estado"`
	StartDate           string     `json:"fecha_desde"`
	EndDate             string     `json:"fecha_hasta"`
	Vacancies           int        `json:"vacantes"`
	HomeLocalityIDs     []int64    `json:"localidades_base"`
	ExportedLocalityIDs []int64    `json:"localidades_exportadas"`
}

// TransportAssignment is the resolved seat of one person on one vehicle.
type TransportAssignment struct {
	TransportID      string `json:"id_transporte"`
	BoardingEventID  string `json:"id_evento_subida"`
	AlightingEventID string `json:"id_evento_bajada"`
}

// LogisticsWindow is a person's resolved check-in/check-out window. Fields left
// unset by every applicable rule remain nil, meaning "no constraint".
type LogisticsWindow struct {
	Checkin      *string `json:"checkin,omitempty"`
	CheckinTime  *string `json:"checkin_hora,omitempty"`
	Checkout     *string `json:"checkout,omitempty"`
	CheckoutTime *string `json:"checkout_hora,omitempty"`
}

// Empty reports whether no applicable rule set any field.
func (w LogisticsWindow) Empty() bool {
	return w.Checkin == nil && w.CheckinTime == nil && w.Checkout == nil && w.CheckoutTime == nil
}

// Action identifies the kind of change captured in the audit trail.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change records one mutation applied within a transaction.
type Change struct {
	Entity EntityType `json:"entity"`
	Action Action     `json:"action"`
	Before any        `json:"before,omitempty"`
	After  any        `json:"after,omitempty"`
}
