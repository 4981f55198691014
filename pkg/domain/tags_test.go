package domain

import "testing"

func TestParseTagGrammar(t *testing.T) {
	cases := []struct {
		raw  string
		want Tag
	}{
		{"GRP:TUTTI", Tag{Kind: TagTutti, Raw: "GRP:TUTTI"}},
		{"GRP:LOCALES", Tag{Kind: TagLocals, Raw: "GRP:LOCALES"}},
		{"GRP:NO_LOCALES", Tag{Kind: TagNoLocals, Raw: "GRP:NO_LOCALES"}},
		{"GRP:PRODUCCION", Tag{Kind: TagRole, Role: RoleStaff, Raw: "GRP:PRODUCCION"}},
		{"GRP:SOLISTAS", Tag{Kind: TagRole, Role: RoleSoloist, Raw: "GRP:SOLISTAS"}},
		{"GRP:DIRECTORES", Tag{Kind: TagRole, Role: RoleDirector, Raw: "GRP:DIRECTORES"}},
		{"LOC:42", Tag{Kind: TagLocality, LocalityID: 42, Raw: "LOC:42"}},
		{"FAM:cuerdas", Tag{Kind: TagFamily, Family: "cuerdas", Raw: "FAM:cuerdas"}},
		{"LOC:abc", Tag{Kind: TagUnknown, Raw: "LOC:abc"}},
		{"FAM:", Tag{Kind: TagUnknown, Raw: "FAM:"}},
		{"GRP:MISTERIO", Tag{Kind: TagUnknown, Raw: "GRP:MISTERIO"}},
		{"", Tag{Kind: TagUnknown, Raw: ""}},
	}
	for _, tc := range cases {
		if got := ParseTag(tc.raw); got != tc.want {
			t.Errorf("ParseTag(%q) = %+v, want %+v", tc.raw, got, tc.want)
		}
	}
}

func TestParseTagsNilInput(t *testing.T) {
	if got := ParseTags(nil); got != nil {
		t.Fatalf("expected nil slice for nil input, got %v", got)
	}
	if got := ParseTags([]string{"GRP:TUTTI", "nope"}); len(got) != 2 {
		t.Fatalf("expected 2 parsed tags, got %d", len(got))
	}
}

func TestTagMatches(t *testing.T) {
	local := Member{IsLocal: true, LocalityID: 7, TourRole: RoleMusician, Family: "vientos"}
	visitor := Member{IsLocal: false, LocalityID: 9, TourRole: RoleSoloist, Family: "cuerdas"}

	cases := []struct {
		name   string
		raw    string
		member Member
		want   bool
	}{
		{"tutti matches anyone", "GRP:TUTTI", visitor, true},
		{"locales matches local", "GRP:LOCALES", local, true},
		{"locales skips visitor", "GRP:LOCALES", visitor, false},
		{"no_locales matches visitor", "GRP:NO_LOCALES", visitor, true},
		{"no_locales skips local", "GRP:NO_LOCALES", local, false},
		{"role matches soloist", "GRP:SOLISTAS", visitor, true},
		{"role skips musician", "GRP:SOLISTAS", local, false},
		{"locality matches residence", "LOC:7", local, true},
		{"locality skips others", "LOC:7", visitor, false},
		{"family matches", "FAM:cuerdas", visitor, true},
		{"family skips", "FAM:cuerdas", local, false},
		{"unknown never matches", "GRP:FANTASMA", local, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseTag(tc.raw).Matches(tc.member); got != tc.want {
				t.Fatalf("tag %q on member: got %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestMealEventTags(t *testing.T) {
	ev := MealEvent{RawTags: []string{"GRP:TUTTI", "LOC:3"}}
	tags := ev.Tags()
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(tags))
	}
	if tags[0].Kind != TagTutti || tags[1].LocalityID != 3 {
		t.Fatalf("unexpected parsed tags: %+v", tags)
	}
}
