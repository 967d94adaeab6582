package ecd

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// fakePin records every electrical phase of one working electrode and feeds
// scripted ADC samples back to the engine.
type fakePin struct {
	driven       bool
	level        gpio.Level
	driveCount   int
	releaseCount int

	samples   []int // consumed in order; the last value repeats
	sampleIdx int
}

func (p *fakePin) Drive(level gpio.Level) error {
	p.driven = true
	p.level = level
	p.driveCount++
	return nil
}

func (p *fakePin) Release() error {
	p.driven = false
	p.releaseCount++
	return nil
}

func (p *fakePin) Sample() (int, error) {
	if len(p.samples) == 0 {
		return 0, nil
	}
	v := p.samples[p.sampleIdx]
	if p.sampleIdx < len(p.samples)-1 {
		p.sampleIdx++
	}
	return v, nil
}

// fakeCE records the DAC levels asserted on the counter electrode.
type fakeCE struct {
	levels       []int
	releaseCount int
}

func (c *fakeCE) Drive(lsb int) error {
	c.levels = append(c.levels, lsb)
	return nil
}

func (c *fakeCE) Release() error {
	c.releaseCount++
	return nil
}

// fakeClock counts the blocking holds instead of sleeping. onSleep, when set,
// runs after each recorded hold so tests can raise the stop token at a
// precise point of the pipeline.
type fakeClock struct {
	sleeps  []time.Duration
	onSleep func(n int, d time.Duration)
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	if c.onSleep != nil {
		c.onSleep(len(c.sleeps), d)
	}
}

// newTestDisplay builds a display over fakes with the default 3.0 V / 10-bit
// scaling.
func newTestDisplay(segments int) (*Display, []*fakePin, *fakeCE, *fakeClock) {
	pins := make([]*fakePin, segments)
	segPins := make([]SegmentPin, segments)
	for i := range pins {
		pins[i] = &fakePin{}
		segPins[i] = pins[i]
	}
	ce := &fakeCE{}
	clock := &fakeClock{}
	d, err := New(&Opts{Segments: segPins, CE: ce, Clock: clock})
	if err != nil {
		panic(err)
	}
	return d, pins, ce, clock
}
