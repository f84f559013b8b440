package config

import (
	"time"

	"factgate/internal/ratelimit/models"
)

// ClassLimit is one route class's fixed window and ceiling.
type ClassLimit struct {
	Limit  int
	Window time.Duration
}

// Config holds the per-class limits and the trusted networks that bypass
// limiting entirely.
type Config struct {
	Limits map[models.RouteClass]ClassLimit

	// TrustedCIDRs are internal callers exempt from limiting. Loopback is
	// always trusted.
	TrustedCIDRs []string

	// SkipAuthOnSuccess clears the auth counter after a successful
	// authentication so legitimate retries are not penalized.
	SkipAuthOnSuccess bool
}

// DefaultConfig returns the standard limits.
func DefaultConfig() *Config {
	return &Config{
		Limits: map[models.RouteClass]ClassLimit{
			models.ClassGeneral: {Limit: 100, Window: 15 * time.Minute},
			models.ClassAuth:    {Limit: 5, Window: 15 * time.Minute},
			models.ClassSubmit:  {Limit: 10, Window: time.Hour},
			models.ClassSearch:  {Limit: 30, Window: time.Minute},
		},
		SkipAuthOnSuccess: true,
	}
}

// Get returns the limit and window for a class, defaulting to general.
func (c *Config) Get(class models.RouteClass) (int, time.Duration) {
	if cl, ok := c.Limits[class]; ok {
		return cl.Limit, cl.Window
	}
	cl := c.Limits[models.ClassGeneral]
	return cl.Limit, cl.Window
}
