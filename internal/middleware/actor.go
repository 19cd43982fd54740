package middleware

import (
	"net/http"

	"ibimina-reconciliation-backend/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const actorContextKey = "actor"

// ResolveActor reads the identity asserted by the auth gateway in front of
// this service. Requests without an identity never reach the staff routes.
func ResolveActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := auth.Actor{
			ID:   c.GetHeader("X-Actor-Id"),
			Role: c.GetHeader("X-Actor-Role"),
		}
		if actor.ID == "" || actor.Role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing actor identity"})
			return
		}

		if raw := c.GetHeader("X-Sacco-Id"); raw != "" {
			saccoID, err := uuid.Parse(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid sacco id"})
				return
			}
			actor.SaccoID = &saccoID
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// ActorFrom returns the actor stored by ResolveActor.
func ActorFrom(c *gin.Context) auth.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(auth.Actor); ok {
			return actor
		}
	}
	return auth.Actor{}
}
