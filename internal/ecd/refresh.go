package ecd

import (
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
)

// checkRefresh measures the OCP of every segment and classifies it into one
// of three bands: needs refresh and forces a pass, may be refreshed if some
// other segment forces a pass, or fully charged. The middle band exists so
// that neighboring segments do not churn in and out of threshold on
// alternating cycles.
//
// With CE at half the supply, colored and bleached segments are sampled
// against the same neutral reference without disturbing their charge.
func (d *Display) checkRefresh() (bool, error) {
	d.minBleachOcp = d.maxLSB + 1
	d.refreshColorNeeded = false
	d.refreshBleachNeeded = false

	// Absolute WE boundary of the bleach "maybe" band.
	bleachMaybe := d.maxLSB/2 - int(d.limits.bleachHalfAmp)

	if d.stop.Stopped() {
		return true, nil
	}

	if err := d.EnableCounterElectrode(d.supplyVoltage / 2); err != nil {
		return false, err
	}

	for i := range d.segments {
		s := &d.segments[i]
		sample, err := s.pin.Sample()
		if err != nil {
			return false, err
		}

		switch s.currentState {
		case StateColored:
			switch {
			case float64(sample) > d.limits.colorHalf:
				s.refreshNeeded = false
			case float64(sample) >= d.limits.colorLimitL:
				s.refreshNeeded = true // refreshed only alongside a forced pass
			default:
				s.refreshNeeded = true
				d.refreshColorNeeded = true
			}

		case StateBleached:
			// Track the segment closest to violating the safe bleach
			// potential; refreshBleach bounds the CE amplitude with it.
			if sample < d.minBleachOcp {
				d.minBleachOcp = sample
			}
			switch {
			case float64(sample) > d.limits.bleachLimitH:
				s.refreshNeeded = true
				d.refreshBleachNeeded = true
			case sample >= bleachMaybe:
				s.refreshNeeded = true // refreshed only alongside a forced pass
			default:
				s.refreshNeeded = false
			}

		default:
			s.refreshNeeded = false
		}
	}

	return false, d.releaseAllSegments()
}

// executeRefresh dispatches the refresh loops for the states a check pass
// forced.
func (d *Display) executeRefresh() (bool, error) {
	if d.refreshColorNeeded {
		if stopped, err := d.refreshColor(); stopped || err != nil {
			return stopped, err
		}
	}
	if d.refreshBleachNeeded {
		if stopped, err := d.refreshBleach(); stopped || err != nil {
			return stopped, err
		}
	}
	return false, nil
}

// refreshColor pulses every marked colored segment until its OCP recovers to
// the high color limit or MaxRefreshRetries is reached. Giving up is silent:
// the next check cycle re-evaluates and resumes.
func (d *Display) refreshColor() (bool, error) {
	if d.stop.Stopped() {
		return true, nil
	}

	if err := d.EnableCounterElectrode(d.supplyVoltage - d.cfg.RefreshColoringVoltage); err != nil {
		return false, err
	}

	retries := 0
	for ; d.refreshColorNeeded && retries < MaxRefreshRetries; retries++ {
		if d.stop.Stopped() {
			return true, nil
		}

		for i := range d.segments {
			s := &d.segments[i]
			if s.currentState == StateColored && s.refreshNeeded {
				if err := s.pin.Drive(gpio.High); err != nil {
					return false, err
				}
			}
		}

		d.clock.Sleep(d.cfg.RefreshColorPulseTime)

		if d.stop.Stopped() {
			return true, nil
		}

		if err := d.releaseAllSegments(); err != nil {
			return false, err
		}
		d.refreshColorNeeded = false

		for i := range d.segments {
			s := &d.segments[i]
			if s.currentState != StateColored || !s.refreshNeeded {
				continue
			}
			sample, err := s.pin.Sample()
			if err != nil {
				return false, err
			}
			if float64(sample) < d.limits.colorLimitH {
				d.refreshColorNeeded = true
			} else {
				s.refreshNeeded = false
			}
		}
	}
	if retries == MaxRefreshRetries && d.refreshColorNeeded {
		logrus.Debugf("ecd: color refresh retries exhausted, resuming next cycle")
	}
	return false, nil
}

// refreshBleach pulses every marked bleached segment until its OCP drops to
// the bleach target or MaxRefreshRetries is reached.
//
// The CE amplitude is bounded by the worst-case OCP measured during the check
// pass: driving CE below the potential a bleached segment actually sits at
// would push that segment negative and reverse its chemistry, so the larger
// of the configured amplitude and the measured one wins.
func (d *Display) refreshBleach() (bool, error) {
	if d.stop.Stopped() {
		return true, nil
	}

	minAmp := d.supplyVoltage/2 - float64(d.minBleachOcp)*d.lsbToVolt()
	ceVoltage := d.cfg.RefreshBleachingVoltage
	if minAmp > ceVoltage {
		ceVoltage = minAmp
	}

	if err := d.EnableCounterElectrode(ceVoltage); err != nil {
		return false, err
	}

	retries := 0
	for ; d.refreshBleachNeeded && retries < MaxRefreshRetries; retries++ {
		if d.stop.Stopped() {
			return true, nil
		}

		for i := range d.segments {
			s := &d.segments[i]
			if s.currentState == StateBleached && s.refreshNeeded {
				if err := s.pin.Drive(gpio.Low); err != nil {
					return false, err
				}
			}
		}

		d.clock.Sleep(d.cfg.RefreshBleachPulseTime)

		if err := d.releaseAllSegments(); err != nil {
			return false, err
		}
		d.refreshBleachNeeded = false

		for i := range d.segments {
			s := &d.segments[i]
			if s.currentState != StateBleached || !s.refreshNeeded {
				continue
			}
			sample, err := s.pin.Sample()
			if err != nil {
				return false, err
			}
			if float64(sample) > d.limits.bleachLimitL {
				d.refreshBleachNeeded = true
			} else {
				s.refreshNeeded = false
			}
		}
	}
	if retries == MaxRefreshRetries && d.refreshBleachNeeded {
		logrus.Debugf("ecd: bleach refresh retries exhausted, resuming next cycle")
	}
	return false, nil
}
