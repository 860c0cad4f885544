package clock

import (
	"fmt"
	"time"

	"github.com/arklim/user-auth-service/internal/core/port"
)

const istOffset = 5*60*60 + 30*60

// ZoneClock implements port.Clock in a fixed service timezone.
type ZoneClock struct {
	loc *time.Location
	now func() time.Time
}

// Option customises a ZoneClock.
type Option func(*ZoneClock)

// WithNow overrides the wall-clock source.
func WithNow(now func() time.Time) Option {
	return func(c *ZoneClock) {
		if now != nil {
			c.now = now
		}
	}
}

// New loads timezone. Asia/Kolkata falls back to a fixed +05:30 zone when tzdata is missing.
func New(timezone string, opts ...Option) (*ZoneClock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		if timezone != "Asia/Kolkata" {
			return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
		}
		loc = time.FixedZone("IST", istOffset)
	}

	c := &ZoneClock{loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Location returns the configured zone.
func (c *ZoneClock) Location() *time.Location {
	return c.loc
}

// Now returns the current time in the service zone.
func (c *ZoneClock) Now() time.Time {
	return c.now().In(c.loc)
}

// UnixNow returns the current unix second.
func (c *ZoneClock) UnixNow() int64 {
	return c.Now().Unix()
}

// UnixFromNow returns the unix second d from now.
func (c *ZoneClock) UnixFromNow(d time.Duration) int64 {
	return c.Now().Add(d).Unix()
}

// IsExpired reports whether unix lies strictly before now. A timestamp equal to now is still valid.
func (c *ZoneClock) IsExpired(unix int64) bool {
	return unix < c.UnixNow()
}

var _ port.Clock = (*ZoneClock)(nil)
