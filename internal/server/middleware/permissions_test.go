package middleware

import "testing"

func TestHasAnyPermission(t *testing.T) {
	manager := &AppUser{UserID: "u2", Role: "user", Permissions: []string{"family.manage"}}

	tests := []struct {
		name        string
		user        *AppUser
		permissions []string
		want        bool
	}{
		{"nil user", nil, []string{"family.view"}, false},
		{"one of many", manager, []string{"family.view", "family.manage"}, true},
		{"none held", manager, []string{"family.view", "family.export"}, false},
		{"empty list", manager, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasAnyPermission(tt.user, tt.permissions...); got != tt.want {
				t.Errorf("HasAnyPermission = %v, want %v", got, tt.want)
			}
		})
	}
}
