// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"time"
)

// NewTime creates a new time service. Frames per second are clamped
// to [MinFramesPerSecond, MaxFramesPerSecond].
func NewTime(cfg TimeConfiguration) *Time {
	fps := ClampFramesPerSecond(cfg.FramesPerSecond)
	events := cfg.EventsPerSecond
	if events <= 0 {
		events = 100
	}

	return &Time{
		fps:         fps,
		fpsTicker:   time.NewTicker(time.Second / time.Duration(fps)),
		eventTicker: time.NewTicker(time.Second / time.Duration(events)),
		last:        time.Now(),
	}
}

// Time contains all the time services and tickers
type Time struct {
	fps       int
	fpsTicker *time.Ticker

	eventTicker *time.Ticker

	last time.Time
}

// Fps gets the set frames per second
func (t *Time) Fps() int {
	return t.fps
}

// FpsTicker gets the initialized fps ticker
func (t *Time) FpsTicker() *time.Ticker {
	return t.fpsTicker
}

// EventTicker gets the initialized event ticker for the event loop
func (t *Time) EventTicker() *time.Ticker {
	return t.eventTicker
}

// Delta returns the time since the previous call and restarts the clock.
func (t *Time) Delta() time.Duration {
	now := time.Now()
	d := now.Sub(t.last)
	t.last = now
	return d
}

// Stop stops both tickers
func (t *Time) Stop() {
	t.fpsTicker.Stop()
	t.eventTicker.Stop()
}
