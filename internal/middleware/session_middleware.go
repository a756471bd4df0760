package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kasuwa/kasuwa-backend/internal/app/model"
	"github.com/kasuwa/kasuwa-backend/pkg/redis"
)

// SessionIDKey is the context key for the guest session ID.
const SessionIDKey = "session_id"

// SessionHeader is the header guests use to carry their cart identity.
const SessionHeader = "X-Session-Id"

// SessionFreshHeader is set to "true" when the session ID was issued on this
// request or has aged out of Redis, so the client knows its stored ID did
// not survive.
const SessionFreshHeader = "X-Session-New"

// Session ensures every request carries a guest session ID. A missing or
// malformed header gets a fresh UUID, echoed back so the client can persist
// it. The ID is registered in Redis so stale sessions age out.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(SessionHeader)
		fresh := false
		if _, err := uuid.Parse(sessionID); err != nil {
			sessionID = uuid.NewString()
			fresh = true
		} else if known, err := redis.SessionKnown(c.Request.Context(), sessionID); err == nil && !known {
			fresh = true
		}

		c.Set(SessionIDKey, sessionID)
		c.Header(SessionHeader, sessionID)
		if fresh {
			c.Header(SessionFreshHeader, "true")
		}

		if err := redis.TouchSession(c.Request.Context(), sessionID); err != nil {
			// session tracking is best effort; the cart row is the source of truth
			log := GetLoggerFromContext(c)
			log.Debug("Failed to touch session in redis", map[string]interface{}{
				"session_id": sessionID,
			})
		}

		c.Next()
	}
}

// GetSessionID extracts the guest session ID from context
func GetSessionID(c *gin.Context) (string, bool) {
	sessionID, exists := c.Get(SessionIDKey)
	if !exists {
		return "", false
	}
	return sessionID.(string), true
}

// RequestIdentity builds the cart identity for the request: the
// authenticated user when present, otherwise the guest session.
func RequestIdentity(c *gin.Context) model.Identity {
	if userID, ok := GetUserID(c); ok {
		return model.UserIdentity(userID)
	}
	if sessionID, ok := GetSessionID(c); ok {
		return model.SessionIdentity(sessionID)
	}
	return model.Identity{}
}
