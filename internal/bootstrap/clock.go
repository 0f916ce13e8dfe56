package bootstrap

import (
	"locator-healer/internal/ports"
	"time"
)

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func newClock() ports.Clock {
	return systemClock{}
}
