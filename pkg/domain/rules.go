package domain

import (
	"encoding/json"
	"strings"
)

// Scope is the breadth at which a rule applies.
type Scope string

// Rule scopes, from broadest to narrowest. Priority is NOT derived from scope:
// operators set alcance and prioridad independently, and resolution sorts on
// the explicit priority number alone.
const (
	ScopeGeneral  Scope = "General"
	ScopeRegion   Scope = "Region"
	ScopeLocality Scope = "Localidad"
	ScopeCategory Scope = "Categoria"
	ScopePerson   Scope = "Persona"
	// ScopeUnknown is assigned to rules whose alcance is outside the catalog.
	// Such rules never apply.
	ScopeUnknown Scope = ""
)

// RuleKind distinguishes admission directives.
type RuleKind string

// Admission rule kinds.
const (
	RuleInclusion RuleKind = "INCLUSION"
	RuleExclusion RuleKind = "EXCLUSION"
)

// Category keys recognized in target_ids of category-scoped rules. Keys with a
// FAM: prefix match on instrument family; unknown keys never match.
const (
	CategorySoloists  = "SOLISTAS"
	CategoryDirectors = "DIRECTORES"
	CategoryStaff     = "PRODUCCION"
	CategoryLocals    = "LOCALES"
	CategoryNoLocals  = "NO_LOCALES"
)

// RuleTarget is the discriminated target of a scoped rule. Exactly one target
// reference is populated, enforced by the constructors; decoding an unknown
// alcance yields a target that never applies.
type RuleTarget struct {
	scope      Scope
	regionID   int64
	localityID int64
	memberID   string
	categories []string
}

// GeneralTarget applies to everyone.
func GeneralTarget() RuleTarget {
	return RuleTarget{scope: ScopeGeneral}
}

// RegionTarget applies to members residing in the given region.
func RegionTarget(regionID int64) RuleTarget {
	return RuleTarget{scope: ScopeRegion, regionID: regionID}
}

// LocalityTarget applies to members residing in the given locality.
func LocalityTarget(localityID int64) RuleTarget {
	return RuleTarget{scope: ScopeLocality, localityID: localityID}
}

// CategoryTarget applies to members matching any of the given category keys.
func CategoryTarget(keys ...string) RuleTarget {
	return RuleTarget{scope: ScopeCategory, categories: append([]string(nil), keys...)}
}

// PersonTarget applies to a single member.
func PersonTarget(memberID string) RuleTarget {
	return RuleTarget{scope: ScopePerson, memberID: memberID}
}

// Scope returns the target's scope.
func (t RuleTarget) Scope() Scope { return t.scope }

// Geographic reports whether the target selects on residence rather than on
// category or identity. Geographic targets are subject to the staff carve-out.
func (t RuleTarget) Geographic() bool {
	switch t.scope {
	case ScopeGeneral, ScopeRegion, ScopeLocality:
		return true
	}
	return false
}

// MemberID returns the targeted member id for person-scoped targets.
func (t RuleTarget) MemberID() string { return t.memberID }

// TourContext carries the catalog data a resolution pass needs beyond the
// member record itself: locality→region mapping, the tour's home-base
// localities, per-locality export state, and the meal event calendar.
type TourContext struct {
	Localities         map[int64]Locality
	HomeLocalityIDs    map[int64]bool
	ExportedLocalities map[int64]bool
	MealEvents         []MealEvent
}

func (c TourContext) regionOf(localityID int64) (int64, bool) {
	loc, ok := c.Localities[localityID]
	if !ok {
		return 0, false
	}
	return loc.RegionID, true
}

func matchCategory(key string, m Member) bool {
	switch key {
	case CategorySoloists:
		return m.TourRole == RoleSoloist
	case CategoryDirectors:
		return m.TourRole == RoleDirector
	case CategoryStaff:
		return m.TourRole == RoleStaff
	case CategoryLocals:
		return m.IsLocal
	case CategoryNoLocals:
		return !m.IsLocal
	}
	if fam, ok := strings.CutPrefix(key, "FAM:"); ok && fam != "" {
		return m.Family == fam
	}
	return false
}

// AppliesTo reports whether the target selects the given member. Unknown
// scopes and unknown category keys never apply.
func (t RuleTarget) AppliesTo(m Member, ctx TourContext) bool {
	switch t.scope {
	case ScopeGeneral:
		return true
	case ScopeRegion:
		region, ok := ctx.regionOf(m.LocalityID)
		return ok && region == t.regionID
	case ScopeLocality:
		return m.LocalityID == t.localityID
	case ScopeCategory:
		for _, key := range t.categories {
			if matchCategory(key, m) {
				return true
			}
		}
		return false
	case ScopePerson:
		return m.ID == t.memberID
	default:
		return false
	}
}

// AppliesToLocality runs the geographic part of the match with a locality's
// region and id substituted for a person's attributes. Category and person
// scoped targets never apply at locality level.
func (t RuleTarget) AppliesToLocality(loc Locality) bool {
	switch t.scope {
	case ScopeGeneral:
		return true
	case ScopeRegion:
		return loc.RegionID == t.regionID
	case ScopeLocality:
		return loc.ID == t.localityID
	default:
		return false
	}
}

// ruleTargetWire is the persisted shape of a rule target: an untyped alcance
// string plus one-of-five optional reference fields, as entered by operators.
type ruleTargetWire struct {
	Scope      Scope    `json:"alcance"`
	RegionID   *int64   `json:"id_region,omitempty"`
	LocalityID *int64   `json:"id_localidad,omitempty"`
	MemberID   *string  `json:"id_integrante,omitempty"`
	TargetIDs  []string `json:"target_ids,omitempty"`
}

// MarshalJSON encodes the target in its operator-facing wire form.
func (t RuleTarget) MarshalJSON() ([]byte, error) {
	wire := ruleTargetWire{Scope: t.scope}
	switch t.scope {
	case ScopeRegion:
		wire.RegionID = &t.regionID
	case ScopeLocality:
		wire.LocalityID = &t.localityID
	case ScopePerson:
		wire.MemberID = &t.memberID
	case ScopeCategory:
		wire.TargetIDs = t.categories
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the wire form, normalizing unrecognized alcance values
// to ScopeUnknown instead of failing.
func (t *RuleTarget) UnmarshalJSON(data []byte) error {
	var wire ruleTargetWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch wire.Scope {
	case ScopeGeneral:
		*t = GeneralTarget()
	case ScopeRegion:
		if wire.RegionID == nil {
			*t = RuleTarget{}
			return nil
		}
		*t = RegionTarget(*wire.RegionID)
	case ScopeLocality:
		if wire.LocalityID == nil {
			*t = RuleTarget{}
			return nil
		}
		*t = LocalityTarget(*wire.LocalityID)
	case ScopeCategory:
		*t = CategoryTarget(wire.TargetIDs...)
	case ScopePerson:
		if wire.MemberID == nil {
			*t = RuleTarget{}
			return nil
		}
		*t = PersonTarget(*wire.MemberID)
	default:
		*t = RuleTarget{}
	}
	return nil
}

// AdmissionRule is a scoped INCLUSION/EXCLUSION directive attached to one
// physical vehicle.
type AdmissionRule struct {
	ID          string     `json:"id"`
	TransportID string     `json:"id_transporte"`
	Target      RuleTarget `json:"target"`
	Kind        RuleKind   `json:"tipo"`
	Priority    int        `json:"prioridad"`
}

// LogisticsRule contributes check-in/check-out fields to the members it
// targets. Only the fields it explicitly carries participate in the merge.
type LogisticsRule struct {
	ID       string          `json:"id"`
	TourID   string          `json:"id_gira"`
	Target   RuleTarget      `json:"target"`
	Priority int             `json:"prioridad"`
	Window   LogisticsWindow `json:"ventana"`
}

// StopRule attaches a boarding/alighting event to the members it targets.
// Stop rules are purely additive: there is no kind and no priority, and the
// union of all matching rules applies.
type StopRule struct {
	ID          string     `json:"id"`
	StopEventID string     `json:"id_evento"`
	Target      RuleTarget `json:"target"`
}

// RuleSnapshot bundles the three independent rule families of one tour.
type RuleSnapshot struct {
	Admission []AdmissionRule `json:"admision"`
	Logistics []LogisticsRule `json:"logistica"`
	Stops     []StopRule      `json:"paradas"`
}
