package sdk

// Role is the navigation role derived from an identity.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleStudent   Role = "student"
	RoleConvenor  Role = "unit_convenor"
	RoleStaff     Role = "staff"
	// RoleMember covers authenticated user types without a dedicated menu.
	RoleMember Role = "member"
)

// NavKey identifies a navigation entry and the page behind it.
type NavKey string

const (
	NavHome        NavKey = "home"
	NavEvents      NavKey = "events"
	NavSocialGold  NavKey = "socialGold"
	NavAskAI       NavKey = "askAI"
	NavQueries     NavKey = "queries"
	NavLogin       NavKey = "login"
	NavAbout       NavKey = "about"
	NavDashboard   NavKey = "dashboard"
	NavManageUnits NavKey = "manageUnits"
	NavReports     NavKey = "reports"
	NavTeaching    NavKey = "teaching"
	NavStaffEvents NavKey = "staffEvents"
	NavAdmin       NavKey = "admin"
)

// NavEntry is one menu item.
type NavEntry struct {
	Key   NavKey `json:"key"`
	Label string `json:"label"`
	Path  string `json:"path"`
}

var navEntries = map[NavKey]NavEntry{
	NavHome:        {Key: NavHome, Label: "Home", Path: "/"},
	NavEvents:      {Key: NavEvents, Label: "Events", Path: "/events"},
	NavSocialGold:  {Key: NavSocialGold, Label: "Social Gold", Path: "/social-gold"},
	NavAskAI:       {Key: NavAskAI, Label: "Ask AI", Path: "/ask-ai"},
	NavQueries:     {Key: NavQueries, Label: "Queries", Path: "/queries"},
	NavLogin:       {Key: NavLogin, Label: "Log in", Path: "/login"},
	NavAbout:       {Key: NavAbout, Label: "About", Path: "/about"},
	NavDashboard:   {Key: NavDashboard, Label: "Dashboard", Path: "/dashboard"},
	NavManageUnits: {Key: NavManageUnits, Label: "Manage Units", Path: "/units/manage"},
	NavReports:     {Key: NavReports, Label: "Reports", Path: "/reports"},
	NavTeaching:    {Key: NavTeaching, Label: "Teaching", Path: "/teaching"},
	NavStaffEvents: {Key: NavStaffEvents, Label: "Staff Events", Path: "/staff/events"},
	NavAdmin:       {Key: NavAdmin, Label: "Admin", Path: "/admin"},
}

// roleNavigation is the menu for each role, in display order.
var roleNavigation = map[Role][]NavKey{
	RoleAnonymous: {NavHome, NavEvents, NavSocialGold, NavAskAI, NavQueries, NavLogin, NavAbout},
	RoleStudent:   {NavDashboard, NavQueries, NavAskAI},
	RoleConvenor:  {NavDashboard, NavManageUnits, NavReports, NavTeaching, NavStaffEvents},
	RoleStaff:     {NavDashboard, NavAdmin, NavTeaching, NavStaffEvents},
	RoleMember:    {NavDashboard},
}

// RoleOf maps an identity to its navigation role. A nil identity is anonymous.
// Unit convenors keep their own menu; is_staff promotes any other type to staff.
func RoleOf(identity *Identity) Role {
	if identity == nil {
		return RoleAnonymous
	}
	switch {
	case identity.UserType == UserTypeUnitConvenor:
		return RoleConvenor
	case identity.UserType == UserTypeStaff, identity.UserType == UserTypeAdmin, identity.IsStaff:
		return RoleStaff
	case identity.UserType == UserTypeStudent:
		return RoleStudent
	default:
		return RoleMember
	}
}

// Navigation returns the menu for identity. The result is freshly allocated on
// every call.
func Navigation(identity *Identity) []NavEntry {
	keys := roleNavigation[RoleOf(identity)]
	out := make([]NavEntry, 0, len(keys))
	for _, key := range keys {
		out = append(out, navEntries[key])
	}
	return out
}

// PublicNavigation is the menu shown to anonymous visitors.
func PublicNavigation() []NavEntry {
	return Navigation(nil)
}

// Lookup returns the entry for key.
func Lookup(key NavKey) (NavEntry, bool) {
	entry, ok := navEntries[key]
	return entry, ok
}
