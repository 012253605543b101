package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"fulfillment/internal/identity"
)

const actorContextKey = "actor"

// AuthMiddleware verifies the gateway service key and materializes the caller
// identity the gateway resolved upstream. The core consumes role and
// capabilities as opaque guards; it never looks users up itself.
func AuthMiddleware(serviceKeyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if serviceKeyHash != "" {
			key := c.GetHeader("X-Service-Key")
			if err := bcrypt.CompareHashAndPassword([]byte(serviceKeyHash), []byte(key)); err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid service key"})
				return
			}
		}

		role := identity.Role(c.GetHeader("X-User-Role"))
		switch role {
		case identity.RoleVendor, identity.RoleAdmin, identity.RoleSuperAdmin:
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown or missing role"})
			return
		}
		if role == identity.RoleVendor && c.GetHeader("X-Vendor-Id") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "vendor identity requires a vendor id"})
			return
		}

		var capabilities []identity.Capability
		if raw := c.GetHeader("X-Capabilities"); raw != "" {
			for _, cap := range strings.Split(raw, ",") {
				capabilities = append(capabilities, identity.Capability(strings.TrimSpace(cap)))
			}
		}

		actor := identity.NewActor(
			c.GetHeader("X-User-Id"),
			role,
			c.GetHeader("X-Vendor-Id"),
			capabilities,
		)
		c.Set(actorContextKey, actor)
		c.Next()
	}
}

func currentActor(c *gin.Context) identity.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(identity.Actor); ok {
			return actor
		}
	}
	return identity.Actor{}
}
