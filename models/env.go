package models

import (
	"strings"

	"golang.org/x/exp/slog"
	"gorm.io/gorm"
)

// Config holds the runtime configuration shared by every handler.
type Config struct {
	// Domains are the domains this bridge answers webfinger queries for.
	Domains []string
	// BaseURL is the public base URL of the bridge, eg. https://fed.brid.gy.
	BaseURL string
	// DefaultHub is the PuSH hub advertised when a site declares none.
	DefaultHub string
	// AtomProxy is the HTML-to-Atom conversion service used for sites
	// without a native feed.
	AtomProxy string
}

// OwnDomain reports whether host is one of the bridge's own domains.
func (c *Config) OwnDomain(host string) bool {
	for _, domain := range c.Domains {
		if strings.EqualFold(host, domain) {
			return true
		}
	}
	return false
}

type Env struct {
	// DB is the database connection.
	DB     *gorm.DB
	Logger *slog.Logger
	Config
}

func (e *Env) Log() *slog.Logger {
	return e.Logger
}
