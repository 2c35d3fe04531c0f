package server

import (
	"strings"
	"time"

	"github.com/dormhub/dormhub/internal/actor"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const contextActorKey = "actor"

// RequestLogger emits one structured line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if last := c.Errors.Last(); last != nil {
			fields = append(fields, zap.Error(last.Err))
		}

		if c.Writer.Status() >= 500 {
			log.Error("request", fields...)
			return
		}
		log.Info("request", fields...)
	}
}

// AuthRequired resolves the bearer token into an actor and threads it
// through both the gin and request contexts.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		act, err := s.tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextActorKey, act)
		c.Request = c.Request.WithContext(actor.WithActor(c.Request.Context(), act))
		c.Next()
	}
}

func (s *Server) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		act, ok := currentActor(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !act.IsAdmin() {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func currentActor(c *gin.Context) (actor.Actor, bool) {
	value, ok := c.Get(contextActorKey)
	if !ok {
		return actor.Actor{}, false
	}
	act, ok := value.(actor.Actor)
	return act, ok
}
