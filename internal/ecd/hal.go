package ecd

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// SegmentPin is the working electrode (WE) of one segment. The same physical
// electrode is used for driving and for OCP sampling, so the implementation
// must support switching between push-pull output, high impedance and analog
// input.
type SegmentPin interface {
	// Drive asserts a push-pull output at the given logic level.
	Drive(level gpio.Level) error
	// Release returns the electrode to high impedance.
	Release() error
	// Sample measures the electrode potential and returns it as a raw ADC
	// count at the display's configured resolution.
	Sample() (int, error)
}

// CounterElectrode is the shared electrode all working electrodes are driven
// against. Only one level can be asserted at a time for the whole display.
type CounterElectrode interface {
	// Drive asserts the DAC output at the given raw count.
	Drive(lsb int) error
	// Release returns the electrode to high impedance.
	Release() error
}

// Clock abstracts the blocking pulse holds so the engine can be exercised in
// tests without real delays.
type Clock interface {
	Sleep(d time.Duration)
}

type wallClock struct{}

func (wallClock) Sleep(d time.Duration) { time.Sleep(d) }
