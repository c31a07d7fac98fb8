package auth

// Role names known to the catalog.
const (
	RoleAdmin      = "Admin"
	RoleSuperAdmin = "SuperAdmin"
	RoleUser       = "User"
)

// Policy decides whether an authenticated caller may proceed.
type Policy struct {
	Name  string
	Allow func(c *Claims) bool
}

// Policies holds the named authorization rules.
type Policies struct {
	AdminOnly      Policy
	SuperAdminOnly Policy
	UserOnly       Policy
	ExclusiveOnly  Policy
}

// NewPolicies binds the rules to superAdminID, the "id" claim granted the exclusive policies.
// An empty superAdminID matches no caller.
func NewPolicies(superAdminID string) Policies {
	isSuper := func(c *Claims) bool { return superAdminID != "" && c.ID == superAdminID }
	return Policies{
		AdminOnly: Policy{Name: "AdminOnly", Allow: func(c *Claims) bool {
			return c.HasRole(RoleAdmin)
		}},
		SuperAdminOnly: Policy{Name: "SuperAdminOnly", Allow: func(c *Claims) bool {
			return c.HasRole(RoleAdmin) && isSuper(c)
		}},
		UserOnly: Policy{Name: "UserOnly", Allow: func(c *Claims) bool {
			return c.HasRole(RoleUser)
		}},
		ExclusiveOnly: Policy{Name: "ExclusiveOnly", Allow: func(c *Claims) bool {
			return isSuper(c) || c.HasRole(RoleSuperAdmin)
		}},
	}
}
