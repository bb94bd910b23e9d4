package entity

// Role names carried in the access token's role claim.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// IsKnownRole reports whether role is one the portal authorizes.
func IsKnownRole(role string) bool {
	return role == RoleAdmin || role == RoleClient
}
