package ecd

import (
	"errors"
	"fmt"
)

// segment is one electrochromic pixel element.
//
// currentState changes only inside the execute routines, never inside
// SetSegmentState, so there is exactly one source of truth for what is
// physically driven.
type segment struct {
	pin           SegmentPin
	currentState  SegmentState
	nextState     SegmentState
	refreshNeeded bool
}

// Opts configures a Display. Segments and CE are mandatory; the rest default
// to the reference hardware (3.0 V supply, 10-bit converters, wall clock,
// private stop token).
type Opts struct {
	// Segments lists the working electrode of every segment, in display
	// order. At most MaxSegments entries.
	Segments []SegmentPin

	// CE is the shared counter electrode.
	CE CounterElectrode

	// SupplyVoltage is the rail used for ADC/DAC scaling, in volts.
	SupplyVoltage float64

	// ResolutionBits is the ADC/DAC resolution (8..16).
	ResolutionBits int

	// Clock provides the blocking pulse holds.
	Clock Clock

	// Stop, when non-nil, is shared with the caller (and possibly other
	// displays) instead of allocating a private token.
	Stop *StopToken
}

// Display drives a fixed set of electrochromic segments through one shared
// counter electrode. It is not safe for concurrent use: all driving must come
// from a single control flow, with the StopToken as the only cross-goroutine
// interaction.
type Display struct {
	cfg      Config
	segments []segment
	ce       CounterElectrode
	clock    Clock
	stop     *StopToken

	supplyVoltage float64
	maxLSB        int
	limits        refreshLimits

	// Pending-work flags raised by SetSegmentState and cleared once the
	// corresponding transition executes.
	bleachRequired bool
	colorRequired  bool

	// Transient refresh bookkeeping, recomputed every check pass.
	refreshColorNeeded  bool
	refreshBleachNeeded bool
	minBleachOcp        int
}

// New builds a Display with all segments undefined and every electrode in
// high impedance.
func New(opts *Opts) (*Display, error) {
	if opts == nil {
		return nil, errors.New("ecd: missing options")
	}
	if len(opts.Segments) == 0 {
		return nil, errors.New("ecd: at least one segment pin is required")
	}
	if len(opts.Segments) > MaxSegments {
		return nil, fmt.Errorf("ecd: %d segments exceeds the %d supported by the driver", len(opts.Segments), MaxSegments)
	}
	if opts.CE == nil {
		return nil, errors.New("ecd: counter electrode is required")
	}
	supply := opts.SupplyVoltage
	if supply == 0 {
		supply = DefaultSupplyVoltage
	}
	if supply <= 0 {
		return nil, fmt.Errorf("ecd: supply voltage must be positive, got %v", supply)
	}
	bits := opts.ResolutionBits
	if bits == 0 {
		bits = DefaultResolutionBits
	}
	if bits < 8 || bits > 16 {
		return nil, fmt.Errorf("ecd: resolution must be 8..16 bits, got %d", bits)
	}
	clock := opts.Clock
	if clock == nil {
		clock = wallClock{}
	}
	stop := opts.Stop
	if stop == nil {
		stop = &StopToken{}
	}

	d := &Display{
		cfg:           DefaultConfig(),
		ce:            opts.CE,
		clock:         clock,
		stop:          stop,
		supplyVoltage: supply,
		maxLSB:        1<<bits - 1,
	}
	for i, pin := range opts.Segments {
		if pin == nil {
			return nil, fmt.Errorf("ecd: segment pin %d is nil", i)
		}
		d.segments = append(d.segments, segment{
			pin:          pin,
			currentState: StateUndefined,
			nextState:    StateUndefined,
		})
	}

	// Electrodes stay in high impedance until driving is active.
	if err := d.releaseAllSegments(); err != nil {
		return nil, err
	}
	if err := d.ce.Release(); err != nil {
		return nil, err
	}

	d.limits = computeRefreshLimits(d.supplyVoltage, d.maxLSB, d.cfg)
	return d, nil
}

// Begin colors every segment then bleaches every segment, each phase as a
// full ExecuteDisplay pass. It leaves the panel in a known all-bleached state
// and doubles as a power-on self test.
func (d *Display) Begin() error {
	for i := range d.segments {
		d.requestState(&d.segments[i], StateColored)
	}
	if err := d.ExecuteDisplay(); err != nil {
		return err
	}
	d.SetAllSegmentsBleach()
	return d.ExecuteDisplay()
}

// SetConfig replaces the drive parameters and recomputes the derived refresh
// thresholds in the same step.
func (d *Display) SetConfig(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	d.cfg = cfg
	d.limits = computeRefreshLimits(d.supplyVoltage, d.maxLSB, d.cfg)
	return nil
}

// Config returns the active drive parameters.
func (d *Display) Config() Config { return d.cfg }

// UpdateSupplyVoltage replaces the supply voltage used for ADC/DAC scaling
// and recomputes the derived refresh thresholds.
func (d *Display) UpdateSupplyVoltage(volts float64) error {
	if volts <= 0 {
		return fmt.Errorf("ecd: supply voltage must be positive, got %v", volts)
	}
	d.supplyVoltage = volts
	d.limits = computeRefreshLimits(d.supplyVoltage, d.maxLSB, d.cfg)
	return nil
}

// SegmentCount returns the number of segments the display was built with.
func (d *Display) SegmentCount() int { return len(d.segments) }

// CurrentState returns the last state physically applied to a segment.
func (d *Display) CurrentState(index int) (SegmentState, error) {
	if index < 0 || index >= len(d.segments) {
		return StateUndefined, fmt.Errorf("ecd: segment index %d out of range [0,%d)", index, len(d.segments))
	}
	return d.segments[index].currentState, nil
}

// SetSegmentState requests a pending transition for one segment. No
// electrical action happens until ExecuteDisplay. Requesting the segment's
// present or already-pending state is a no-op.
func (d *Display) SetSegmentState(index int, colored bool) error {
	if index < 0 || index >= len(d.segments) {
		return fmt.Errorf("ecd: segment index %d out of range [0,%d)", index, len(d.segments))
	}
	target := StateBleached
	if colored {
		target = StateColored
	}
	d.requestState(&d.segments[index], target)
	return nil
}

func (d *Display) requestState(s *segment, target SegmentState) {
	if s.currentState == target || s.nextState == target {
		return
	}
	s.nextState = target
	if target == StateColored {
		d.colorRequired = true
	} else {
		d.bleachRequired = true
	}
}

// SetAllSegmentsBleach requests the bleached state for every segment.
func (d *Display) SetAllSegmentsBleach() {
	for i := range d.segments {
		d.requestState(&d.segments[i], StateBleached)
	}
}

// SetStopDrivingFlag requests cooperative interruption of the running
// pipeline. Safe to call from any goroutine.
func (d *Display) SetStopDrivingFlag() { d.stop.Set() }

// ClearStopDriving re-allows driving after an interruption.
func (d *Display) ClearStopDriving() { d.stop.Clear() }

// StopToken returns the display's cancellation token.
func (d *Display) StopToken() *StopToken { return d.stop }

// ExecuteDisplay applies the pending transitions, measures OCP degradation
// and refreshes drifted segments, then releases the counter electrode. The
// order is fixed: bleach transition, color transition, refresh check, refresh
// execution, CE release. If the stop token is raised the pipeline returns at
// the next safe point and the remaining steps, CE release included, are
// skipped; this is not reported as an error.
func (d *Display) ExecuteDisplay() error {
	if stopped, err := d.executeBleach(); stopped || err != nil {
		return err
	}
	if stopped, err := d.executeColor(); stopped || err != nil {
		return err
	}
	if stopped, err := d.checkRefresh(); stopped || err != nil {
		return err
	}
	if stopped, err := d.executeRefresh(); stopped || err != nil {
		return err
	}
	// Back to high impedance: bi-stability means no sustained current draw.
	return d.DisableCounterElectrode()
}

// EnableCounterElectrode drives the shared counter electrode to the given
// voltage and holds for the DAC settle time. Exposed for direct-drive bypass
// use by UI helpers.
func (d *Display) EnableCounterElectrode(volts float64) error {
	if err := d.ce.Drive(int(float64(d.maxLSB) * (volts / d.supplyVoltage))); err != nil {
		return err
	}
	d.clock.Sleep(ceSettleTime)
	return nil
}

// DisableCounterElectrode returns the counter electrode to high impedance.
func (d *Display) DisableCounterElectrode() error {
	return d.ce.Release()
}

// releaseAllSegments puts every working electrode in high impedance. This is
// not the same as bleaching them.
func (d *Display) releaseAllSegments() error {
	for i := range d.segments {
		if err := d.segments[i].pin.Release(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Display) lsbToVolt() float64 {
	return d.supplyVoltage / float64(d.maxLSB)
}
