package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock supplies the current time. Stages that stamp records take a
// Clock instead of calling time.Now so tests can assert exact values.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

func NewSystemClock() Clock {
	return systemClock{}
}

var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)
