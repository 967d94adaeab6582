package ecd

import (
	"periph.io/x/conn/v3/gpio"
)

// executeBleach applies the pending bleach transition: CE at the bleach
// amplitude, every segment whose pending state is bleached driven low for the
// configured pulse, then everything back to high impedance. The returned bool
// reports interruption by the stop token.
func (d *Display) executeBleach() (bool, error) {
	if !d.bleachRequired {
		return false, nil
	}
	if d.stop.Stopped() {
		return true, nil
	}

	// CE acts as virtual ground providing the bleach amplitude.
	if err := d.EnableCounterElectrode(d.cfg.BleachingVoltage); err != nil {
		return false, err
	}

	for i := range d.segments {
		s := &d.segments[i]
		if s.nextState != s.currentState && s.nextState == StateBleached {
			if err := s.pin.Drive(gpio.Low); err != nil {
				return false, err
			}
			s.currentState = s.nextState
		}
	}

	if d.stop.Stopped() {
		return true, nil
	}
	d.clock.Sleep(d.cfg.BleachingTime)

	if err := d.releaseAllSegments(); err != nil {
		return false, err
	}
	d.bleachRequired = false
	return false, nil
}

// executeColor is the symmetric color transition: CE sits at
// supplyVoltage-coloringVoltage so CE and WE drive from opposite rails,
// producing the coloring potential across each selected segment.
func (d *Display) executeColor() (bool, error) {
	if !d.colorRequired {
		return false, nil
	}
	if d.stop.Stopped() {
		return true, nil
	}

	if err := d.EnableCounterElectrode(d.supplyVoltage - d.cfg.ColoringVoltage); err != nil {
		return false, err
	}

	for i := range d.segments {
		s := &d.segments[i]
		if s.nextState != s.currentState && s.nextState == StateColored {
			if err := s.pin.Drive(gpio.High); err != nil {
				return false, err
			}
			s.currentState = s.nextState
		}
	}

	if d.stop.Stopped() {
		return true, nil
	}
	d.clock.Sleep(d.cfg.ColoringTime)

	if err := d.releaseAllSegments(); err != nil {
		return false, err
	}
	d.colorRequired = false
	return false, nil
}
