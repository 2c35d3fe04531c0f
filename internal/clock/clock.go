// Package clock injects the time source so date-driven state machines
// stay deterministic in tests.
package clock

import (
	"time"

	"github.com/dormhub/dormhub/internal/config"
	"go.uber.org/fx"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct {
	loc *time.Location
}

func NewSystem(cfg config.Config) (Clock, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	return &systemClock{loc: loc}, nil
}

func (c *systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Today returns the civil date of the clock's current time as a
// midnight-UTC value, comparable with stored civil dates.
func Today(c Clock) time.Time {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

var Module = fx.Module("clock",
	fx.Provide(NewSystem),
)
