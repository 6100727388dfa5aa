package middleware

import (
	"github.com/gin-gonic/gin"

	"budget-backend/internal/app/role"
)

// UserIDFromContext returns the authenticated user's ID set by
// WithAuthCheck.
func UserIDFromContext(c *gin.Context) (uint, bool) {
	v, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// RoleFromContext returns the authenticated user's role.
func RoleFromContext(c *gin.Context) (role.Role, bool) {
	v, exists := c.Get("userRole")
	if !exists {
		return "", false
	}
	r, ok := v.(role.Role)
	return r, ok
}
