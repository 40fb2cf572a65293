package sdk_test

import (
	"testing"

	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keysOf(entries []sdk.NavEntry) []sdk.NavKey {
	keys := make([]sdk.NavKey, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys
}

func TestRoleOf(t *testing.T) {
	tests := []struct {
		name     string
		identity *sdk.Identity
		want     sdk.Role
	}{
		{"anonymous", nil, sdk.RoleAnonymous},
		{"student", &sdk.Identity{UserType: sdk.UserTypeStudent}, sdk.RoleStudent},
		{"convenor", &sdk.Identity{UserType: sdk.UserTypeUnitConvenor}, sdk.RoleConvenor},
		{"convenor with staff flag", &sdk.Identity{UserType: sdk.UserTypeUnitConvenor, IsStaff: true}, sdk.RoleConvenor},
		{"staff", &sdk.Identity{UserType: sdk.UserTypeStaff}, sdk.RoleStaff},
		{"admin", &sdk.Identity{UserType: sdk.UserTypeAdmin}, sdk.RoleStaff},
		{"student with staff flag", &sdk.Identity{UserType: sdk.UserTypeStudent, IsStaff: true}, sdk.RoleStaff},
		{"auditor", &sdk.Identity{UserType: sdk.UserTypeAuditor}, sdk.RoleMember},
		{"parent", &sdk.Identity{UserType: sdk.UserTypeParent}, sdk.RoleMember},
		{"unknown type", &sdk.Identity{UserType: "visitor"}, sdk.RoleMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sdk.RoleOf(tt.identity))
		})
	}
}

func TestNavigation(t *testing.T) {
	tests := []struct {
		name     string
		identity *sdk.Identity
		want     []sdk.NavKey
	}{
		{
			name: "anonymous",
			want: []sdk.NavKey{sdk.NavHome, sdk.NavEvents, sdk.NavSocialGold, sdk.NavAskAI, sdk.NavQueries, sdk.NavLogin, sdk.NavAbout},
		},
		{
			name:     "student",
			identity: &sdk.Identity{UserType: sdk.UserTypeStudent},
			want:     []sdk.NavKey{sdk.NavDashboard, sdk.NavQueries, sdk.NavAskAI},
		},
		{
			name:     "convenor",
			identity: &sdk.Identity{UserType: sdk.UserTypeUnitConvenor},
			want:     []sdk.NavKey{sdk.NavDashboard, sdk.NavManageUnits, sdk.NavReports, sdk.NavTeaching, sdk.NavStaffEvents},
		},
		{
			name:     "staff",
			identity: &sdk.Identity{UserType: sdk.UserTypeStaff},
			want:     []sdk.NavKey{sdk.NavDashboard, sdk.NavAdmin, sdk.NavTeaching, sdk.NavStaffEvents},
		},
		{
			name:     "parent",
			identity: &sdk.Identity{UserType: sdk.UserTypeParent},
			want:     []sdk.NavKey{sdk.NavDashboard},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, keysOf(sdk.Navigation(tt.identity)))
		})
	}
}

func TestNavigation_IsPure(t *testing.T) {
	identity := &sdk.Identity{UserType: sdk.UserTypeUnitConvenor}

	first := sdk.Navigation(identity)
	second := sdk.Navigation(identity)
	assert.Equal(t, first, second)

	first[0].Label = "changed"
	assert.Equal(t, "Dashboard", sdk.Navigation(identity)[0].Label, "callers cannot mutate the table")
	assert.Equal(t, sdk.Navigation(nil), sdk.PublicNavigation())
}

func TestLookup(t *testing.T) {
	entry, ok := sdk.Lookup(sdk.NavManageUnits)
	require.True(t, ok)
	assert.Equal(t, "/units/manage", entry.Path)

	_, ok = sdk.Lookup("nowhere")
	assert.False(t, ok)
}
