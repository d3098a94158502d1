package engine

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tubetune/internal/shared"
)

type fakeClock struct {
	t time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func quietLogger() *log.Logger {
	return shared.NewLogger(io.Discard)
}
