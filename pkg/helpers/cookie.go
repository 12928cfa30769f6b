package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Manager writes the session cookie
type Manager struct {
	Name   string
	Domain string
	Secure bool
	MaxAge time.Duration
}

func NewCookie(name, domain string, secure bool, maxAge time.Duration) *Manager {
	return &Manager{Name: name, Domain: domain, Secure: secure, MaxAge: maxAge}
}

// SetSession stores the token as an HttpOnly, SameSite=Strict cookie on "/"
func (m *Manager) SetSession(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(m.Name, token, int(m.MaxAge.Seconds()), "/", m.Domain, m.Secure, true)
}

func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(m.Name, "", -1, "/", m.Domain, m.Secure, true)
}
