package httpx

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MikeMC777/storefront/internal/visits"
)

const visitSessionKey = "sid"

// VisitSessionID returns the visitor id stored in the session.
func VisitSessionID(c *gin.Context) string {
	if s := Session(c); s != nil {
		id, _ := s.Values[visitSessionKey].(string)
		return id
	}
	return ""
}

// VisitCounter gives every session a visitor id and counts one visit for it
// per request and day. Counter failures are logged and never fail the request.
func VisitCounter(counter visits.Counter, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := Session(c)
		if s == nil {
			c.Next()
			return
		}
		sid, _ := s.Values[visitSessionKey].(string)
		if sid == "" {
			sid = uuid.NewString()
			s.Values[visitSessionKey] = sid
			if err := SaveSession(c); err != nil {
				slog.Warn("save visit session", "err", err)
			}
		}
		if _, err := counter.Increment(c.Request.Context(), sid, visits.Day(now())); err != nil {
			slog.Warn("count visit", "sid", sid, "err", err)
		}
		c.Next()
	}
}
