package clock

import "time"

// FakeClock is a manually advanced Clock for tests. Periods and
// payment due dates are all UTC, so the fake normalizes on creation.
type FakeClock struct {
	now time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward, e.g. past a payment due date.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// SetNow pins the clock to an absolute instant.
func (c *FakeClock) SetNow(t time.Time) {
	c.now = t.UTC()
}
