package middleware

import (
	"net/http"

	"github.com/flexprice/flexgym/internal/types"
	"github.com/gin-gonic/gin"
)

// GymContextMiddleware scopes the request to the gym in the X-Gym-ID header
// and records the staff member acting. Requests without a gym header use the
// default gym, which is what a single site deployment runs with.
func GymContextMiddleware(c *gin.Context) {
	gymID := c.GetHeader(types.HeaderTenantID)
	if gymID == "" {
		gymID = types.DefaultTenantID
	}
	staffID := c.GetHeader(types.HeaderUserID)
	if staffID == "" {
		staffID = types.DefaultUserID
	}
	if len(gymID) > 50 || len(staffID) > 50 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid gym or staff header"})
		return
	}

	ctx := types.SetTenantID(c.Request.Context(), gymID)
	ctx = types.SetUserID(ctx, staffID)
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}
