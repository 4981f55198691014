package domain

import "testing"

func TestMemberActive(t *testing.T) {
	cases := []struct {
		status MemberStatus
		want   bool
	}{
		{MemberConfirmed, true},
		{MemberAbsent, false},
		{MemberWithdrawn, false},
		{MemberNotConvoked, false},
	}
	for _, tc := range cases {
		if got := (Member{Status: tc.status}).Active(); got != tc.want {
			t.Errorf("Active() with status %q = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestMemberRolePredicates(t *testing.T) {
	if !(Member{TourRole: RoleMusician}).IsMusician() || !(Member{TourRole: RoleSoloist}).IsMusician() {
		t.Fatalf("musicians and soloists count as musicians")
	}
	if (Member{TourRole: RoleDirector}).IsMusician() {
		t.Fatalf("directors are not musicians")
	}
	if !(Member{SystemRole: SystemStaff}).IsStaff() {
		t.Fatalf("system-level production counts as staff")
	}
	if !(Member{TourRole: RoleStaff}).IsStaff() {
		t.Fatalf("tour-level production counts as staff")
	}
	if (Member{SystemRole: SystemMusician, TourRole: RoleMusician}).IsStaff() {
		t.Fatalf("plain musicians are not staff")
	}
}

func TestStableMusician(t *testing.T) {
	m := Member{Condition: ConditionStable, SystemRole: SystemMusician}
	if !m.StableMusician() {
		t.Fatalf("stable system musician expected")
	}
	if (Member{Condition: ConditionContracted, SystemRole: SystemMusician}).StableMusician() {
		t.Fatalf("contracted members are not stable musicians")
	}
	if (Member{Condition: ConditionStable, SystemRole: SystemStaff}).StableMusician() {
		t.Fatalf("stable staff is not a stable musician")
	}
}

func TestLogisticsWindowEmpty(t *testing.T) {
	if !(LogisticsWindow{}).Empty() {
		t.Fatalf("zero window is empty")
	}
	date := "2026-03-01"
	if (LogisticsWindow{Checkin: &date}).Empty() {
		t.Fatalf("window with a field set is not empty")
	}
}
