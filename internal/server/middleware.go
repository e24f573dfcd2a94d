package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/platebook/platebook/internal/audit/domain"
	obscontext "github.com/platebook/platebook/internal/observability/context"
)

const contextUserIDKey = "user_id"

func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		session, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		userID := session.UserID.String()
		c.Set(contextUserIDKey, userID)

		ctx := obscontext.WithActor(c.Request.Context(), string(auditdomain.ActorTypeUser), userID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// userIDFromSession reads the authenticated user set by AuthRequired.
func (s *Server) userIDFromSession(c *gin.Context) (snowflake.ID, bool) {
	raw := strings.TrimSpace(c.GetString(contextUserIDKey))
	if raw == "" {
		return 0, false
	}

	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
