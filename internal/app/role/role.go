package role

// Role gates API routes in the auth middleware.
type Role string

const (
	EndUser Role = "end_user"
	Admin   Role = "admin"
)
