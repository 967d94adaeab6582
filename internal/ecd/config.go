package ecd

import (
	"fmt"
	"time"
)

const (
	// MaxSegments is the number of working electrodes the driver hardware
	// exposes.
	MaxSegments = 15

	// MaxRefreshRetries bounds each refresh loop. Exhausting it is not an
	// error: the segment stays under-refreshed until the next check cycle.
	MaxRefreshRetries = 30

	// DefaultSupplyVoltage is the assumed MCU rail used for ADC/DAC scaling
	// until UpdateSupplyVoltage is called.
	DefaultSupplyVoltage = 3.0

	// DefaultResolutionBits is the ADC/DAC resolution (10 bits, 0..1023).
	DefaultResolutionBits = 10

	// ceSettleTime is the hold after every CE DAC write, letting the RC
	// filtered output reach its level before segments are driven or sampled.
	ceSettleTime = 50 * time.Millisecond
)

// Config holds all drive parameters: pulse amplitudes and durations for the
// two transitions and their refresh variants, plus the four threshold offsets
// (in volts, relative to the CE reference) that define the refresh decision
// bands. Amplitudes are in volts, relative to the segment's own electrode.
type Config struct {
	RefreshColorLimitHVoltage  float64 // high threshold of the color band
	RefreshColorLimitLVoltage  float64 // low threshold of the color band
	RefreshBleachLimitHVoltage float64 // high threshold of the bleach band
	RefreshBleachLimitLVoltage float64 // bleach refresh target

	ColoringVoltage        float64       // color transition amplitude
	RefreshColoringVoltage float64       // color refresh amplitude
	ColoringTime           time.Duration // color transition pulse
	RefreshColorPulseTime  time.Duration // color refresh pulse

	BleachingVoltage        float64       // bleach transition amplitude
	RefreshBleachingVoltage float64       // bleach refresh amplitude
	BleachingTime           time.Duration // bleach transition pulse
	RefreshBleachPulseTime  time.Duration // bleach refresh pulse
}

// DefaultConfig returns the stock drive parameters for the reference segment
// chemistry.
func DefaultConfig() Config {
	return Config{
		RefreshColorLimitHVoltage:  1.1,
		RefreshColorLimitLVoltage:  0.95,
		RefreshBleachLimitHVoltage: 0.3,
		RefreshBleachLimitLVoltage: 0.5,

		ColoringVoltage:        1.3,
		RefreshColoringVoltage: 1.3,
		ColoringTime:           350 * time.Millisecond,
		RefreshColorPulseTime:  100 * time.Millisecond,

		BleachingVoltage:        0.7,
		RefreshBleachingVoltage: 0.7,
		BleachingTime:           350 * time.Millisecond,
		RefreshBleachPulseTime:  10 * time.Millisecond,
	}
}

func (c Config) validate() error {
	volts := []struct {
		name string
		v    float64
	}{
		{"coloring voltage", c.ColoringVoltage},
		{"refresh coloring voltage", c.RefreshColoringVoltage},
		{"bleaching voltage", c.BleachingVoltage},
		{"refresh bleaching voltage", c.RefreshBleachingVoltage},
	}
	for _, e := range volts {
		if e.v <= 0 {
			return fmt.Errorf("ecd: %s must be positive, got %v", e.name, e.v)
		}
	}
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"coloring time", c.ColoringTime},
		{"refresh color pulse time", c.RefreshColorPulseTime},
		{"bleaching time", c.BleachingTime},
		{"refresh bleach pulse time", c.RefreshBleachPulseTime},
	}
	for _, e := range durations {
		if e.d <= 0 {
			return fmt.Errorf("ecd: %s must be positive, got %v", e.name, e.d)
		}
	}
	if c.RefreshColorLimitHVoltage < c.RefreshColorLimitLVoltage {
		return fmt.Errorf("ecd: color limit band inverted (%v < %v)",
			c.RefreshColorLimitHVoltage, c.RefreshColorLimitLVoltage)
	}
	if c.RefreshBleachLimitLVoltage > c.RefreshBleachingVoltage {
		return fmt.Errorf("ecd: bleach target offset %v exceeds refresh amplitude %v",
			c.RefreshBleachLimitLVoltage, c.RefreshBleachingVoltage)
	}
	return nil
}
