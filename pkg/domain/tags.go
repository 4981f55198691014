package domain

import (
	"strconv"
	"strings"
)

// TagKind discriminates the parsed convocation tag union.
type TagKind string

// Recognized tag kinds. Anything outside the grammar parses to TagUnknown,
// which never matches; operator-entered drift must not break evaluation.
const (
	TagTutti    TagKind = "tutti"
	TagLocals   TagKind = "locales"
	TagNoLocals TagKind = "no_locales"
	TagRole     TagKind = "rol"
	TagLocality TagKind = "localidad"
	TagFamily   TagKind = "familia"
	TagUnknown  TagKind = "desconocida"
)

// Tag is one symbolic group identifier attached to an event, parsed once at
// ingestion. The zero value is an unknown tag.
type Tag struct {
	Kind       TagKind
	Role       TourRole
	LocalityID int64
	Family     string
	Raw        string
}

// Role tags recognized under the GRP: prefix, beyond the residency groups.
var roleTags = map[string]TourRole{
	"GRP:PRODUCCION": RoleStaff,
	"GRP:SOLISTAS":   RoleSoloist,
	"GRP:DIRECTORES": RoleDirector,
}

// ParseTag parses a single symbolic tag. Unrecognized input yields an unknown
// tag rather than an error.
func ParseTag(raw string) Tag {
	switch raw {
	case "GRP:TUTTI":
		return Tag{Kind: TagTutti, Raw: raw}
	case "GRP:LOCALES":
		return Tag{Kind: TagLocals, Raw: raw}
	case "GRP:NO_LOCALES":
		return Tag{Kind: TagNoLocals, Raw: raw}
	}
	if role, ok := roleTags[raw]; ok {
		return Tag{Kind: TagRole, Role: role, Raw: raw}
	}
	if rest, ok := strings.CutPrefix(raw, "LOC:"); ok {
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return Tag{Kind: TagUnknown, Raw: raw}
		}
		return Tag{Kind: TagLocality, LocalityID: id, Raw: raw}
	}
	if rest, ok := strings.CutPrefix(raw, "FAM:"); ok && rest != "" {
		return Tag{Kind: TagFamily, Family: rest, Raw: raw}
	}
	return Tag{Kind: TagUnknown, Raw: raw}
}

// ParseTags parses an ordered tag list. A nil input yields a nil slice.
func ParseTags(raw []string) []Tag {
	if len(raw) == 0 {
		return nil
	}
	out := make([]Tag, 0, len(raw))
	for _, r := range raw {
		out = append(out, ParseTag(r))
	}
	return out
}

// Matches reports whether the tag targets the given member.
func (t Tag) Matches(m Member) bool {
	switch t.Kind {
	case TagTutti:
		return true
	case TagLocals:
		return m.IsLocal
	case TagNoLocals:
		return !m.IsLocal
	case TagRole:
		return m.TourRole == t.Role
	case TagLocality:
		return m.LocalityID == t.LocalityID
	case TagFamily:
		return m.Family == t.Family
	default:
		return false
	}
}
