package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"go-medscan/internal/config"
)

const sessionCookie = "medscan_session"

// currentSession returns the session id from the cookie, if it is a valid one.
func currentSession(c *gin.Context) (string, bool) {
	value, err := c.Cookie(sessionCookie)
	if err != nil || value == "" {
		return "", false
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// ensureSession returns the current session id, issuing a new cookie when
// there is none.
func ensureSession(c *gin.Context, cfg *config.Config) string {
	if id, ok := currentSession(c); ok {
		return id
	}

	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, id, int(cfg.SessionTTL.Seconds()), "/", "", cfg.SessionCookieSecure, true)
	return id
}
