package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/pkg/logger"
)

// ContextActorKey is the gin context key storing the caller's self-declared identity.
const ContextActorKey = "actor"

const maxActorLength = 120

// Actor copies the X-Actor header onto the request context. The value is
// used for audit attribution only and is never enforced.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(logger.ActorHeader))
		if len(actor) > maxActorLength {
			actor = actor[:maxActorLength]
		}
		if actor != "" {
			c.Set(ContextActorKey, actor)
		}
		c.Next()
	}
}

// ActorFromContext returns the actor recorded by Actor, or an empty string.
func ActorFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if value, exists := c.Get(ContextActorKey); exists {
		if actor, ok := value.(string); ok {
			return actor
		}
	}
	return ""
}
