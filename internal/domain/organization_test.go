package domain

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Velvet Room", "velvet-room"},
		{"  Night & Day Club  ", "night-day-club"},
		{"UPPER case 22", "upper-case-22"},
		{"---", ""},
		{"trailing!!", "trailing"},
		{"a  b", "a-b"},
	}

	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOrgRoleCanManageEvents(t *testing.T) {
	if !RoleOwner.CanManageEvents() || !RoleAdmin.CanManageEvents() {
		t.Fatal("owner and admin manage events")
	}
	if RoleMember.CanManageEvents() {
		t.Fatal("member must not manage events")
	}
}
