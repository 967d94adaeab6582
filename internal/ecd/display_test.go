package ecd

import (
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
)

func TestNewValidation(t *testing.T) {
	pin := &fakePin{}
	ce := &fakeCE{}

	tests := []struct {
		name    string
		opts    *Opts
		wantErr bool
	}{
		{"nil options", nil, true},
		{"no segments", &Opts{CE: ce}, true},
		{"nil counter electrode", &Opts{Segments: []SegmentPin{pin}}, true},
		{"nil segment pin", &Opts{Segments: []SegmentPin{nil}, CE: ce}, true},
		{"too many segments", &Opts{Segments: make([]SegmentPin, MaxSegments+1), CE: ce}, true},
		{"negative supply", &Opts{Segments: []SegmentPin{pin}, CE: ce, SupplyVoltage: -3}, true},
		{"resolution too low", &Opts{Segments: []SegmentPin{pin}, CE: ce, ResolutionBits: 4}, true},
		{"resolution too high", &Opts{Segments: []SegmentPin{pin}, CE: ce, ResolutionBits: 24}, true},
		{"valid", &Opts{Segments: []SegmentPin{pin}, CE: ce}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.opts != nil && len(tt.opts.Segments) == MaxSegments+1 {
				for i := range tt.opts.Segments {
					tt.opts.Segments[i] = &fakePin{}
				}
			}
			_, err := New(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewStartsAllHighZ(t *testing.T) {
	d, pins, ce, _ := newTestDisplay(3)
	for i, p := range pins {
		if p.driven {
			t.Errorf("segment %d driven after construction", i)
		}
		if p.releaseCount == 0 {
			t.Errorf("segment %d never released", i)
		}
	}
	if ce.releaseCount != 1 {
		t.Errorf("CE releaseCount = %d, want 1", ce.releaseCount)
	}
	for i := 0; i < d.SegmentCount(); i++ {
		if st, _ := d.CurrentState(i); st != StateUndefined {
			t.Errorf("segment %d state = %v, want undefined", i, st)
		}
	}
}

// One colored, one bleached request, one execute pass: both transitions land,
// every electrode ends in high impedance.
func TestExecuteAppliesPendingTransitions(t *testing.T) {
	d, pins, ce, _ := newTestDisplay(2)
	pins[0].samples = []int{960} // fully charged colored segment
	pins[1].samples = []int{200} // fully discharged bleached segment

	if err := d.SetSegmentState(0, true); err != nil {
		t.Fatal(err)
	}
	if err := d.SetSegmentState(1, false); err != nil {
		t.Fatal(err)
	}
	if err := d.ExecuteDisplay(); err != nil {
		t.Fatal(err)
	}

	if st, _ := d.CurrentState(0); st != StateColored {
		t.Errorf("segment 0 = %v, want colored", st)
	}
	if st, _ := d.CurrentState(1); st != StateBleached {
		t.Errorf("segment 1 = %v, want bleached", st)
	}
	if d.colorRequired || d.bleachRequired {
		t.Error("pending flags not cleared after execute")
	}
	if pins[0].level != gpio.High || pins[1].level != gpio.Low {
		t.Errorf("drive levels = %v/%v, want high/low", pins[0].level, pins[1].level)
	}
	for i, p := range pins {
		if p.driven {
			t.Errorf("segment %d left driven", i)
		}
	}
	// Bleach CE, color CE, then the half-supply check reference.
	wantCE := []int{238, 579, 511}
	if len(ce.levels) != len(wantCE) {
		t.Fatalf("CE levels = %v, want %v", ce.levels, wantCE)
	}
	for i := range wantCE {
		if ce.levels[i] != wantCE[i] {
			t.Errorf("CE level[%d] = %d, want %d", i, ce.levels[i], wantCE[i])
		}
	}
	if ce.releaseCount != 2 { // once at construction, once after the pipeline
		t.Errorf("CE releaseCount = %d, want 2", ce.releaseCount)
	}
}

// A repeated request for the same target must not raise the pending flag a
// second time nor disturb the recorded next state.
func TestSetSegmentStateIdempotent(t *testing.T) {
	d, _, _, _ := newTestDisplay(2)

	if err := d.SetSegmentState(0, true); err != nil {
		t.Fatal(err)
	}
	if !d.colorRequired {
		t.Fatal("first request did not raise the pending flag")
	}

	d.colorRequired = false // expose a second raise
	if err := d.SetSegmentState(0, true); err != nil {
		t.Fatal(err)
	}
	if d.colorRequired {
		t.Error("repeated request raised the pending flag again")
	}
	if d.segments[0].nextState != StateColored {
		t.Errorf("nextState = %v, want colored", d.segments[0].nextState)
	}
}

func TestSetSegmentStateOutOfRange(t *testing.T) {
	d, _, _, _ := newTestDisplay(2)
	for _, idx := range []int{-1, 2, 99} {
		if err := d.SetSegmentState(idx, true); err == nil {
			t.Errorf("index %d: expected error", idx)
		}
	}
	if _, err := d.CurrentState(7); err == nil {
		t.Error("CurrentState out of range: expected error")
	}
}

// A segment whose samples never converge gets exactly MaxRefreshRetries
// pulses, then the engine silently gives up until the next check cycle.
func TestRefreshRetryBound(t *testing.T) {
	d, pins, ce, clock := newTestDisplay(1)
	d.segments[0].currentState = StateColored
	pins[0].samples = []int{100} // far below every color threshold, forever

	if err := d.ExecuteDisplay(); err != nil {
		t.Fatal(err)
	}

	if pins[0].driveCount != MaxRefreshRetries {
		t.Errorf("refresh pulses = %d, want %d", pins[0].driveCount, MaxRefreshRetries)
	}
	if ce.releaseCount != 2 {
		t.Errorf("CE releaseCount = %d, want 2", ce.releaseCount)
	}
	pulses := 0
	for _, s := range clock.sleeps {
		if s == d.cfg.RefreshColorPulseTime {
			pulses++
		}
	}
	if pulses != MaxRefreshRetries {
		t.Errorf("pulse holds = %d, want %d", pulses, MaxRefreshRetries)
	}
}

// Segments in the middle band are refreshed alongside a forced one, so
// neighbors do not churn in and out of threshold on alternating cycles.
func TestMiddleBandRefreshedWithForcedPass(t *testing.T) {
	d, pins, _, _ := newTestDisplay(2)
	d.segments[0].currentState = StateColored
	d.segments[1].currentState = StateColored
	pins[0].samples = []int{100, 960} // forces the pass, recovers after one pulse
	pins[1].samples = []int{850, 960} // middle band only

	if err := d.ExecuteDisplay(); err != nil {
		t.Fatal(err)
	}

	if pins[0].driveCount != 1 {
		t.Errorf("forced segment pulses = %d, want 1", pins[0].driveCount)
	}
	if pins[1].driveCount != 1 {
		t.Errorf("middle-band segment pulses = %d, want 1", pins[1].driveCount)
	}
	if d.segments[0].refreshNeeded || d.segments[1].refreshNeeded {
		t.Error("refresh marks not cleared after recovery")
	}
}

// The bleach refresh CE amplitude is bounded by the worst-case measured OCP
// so no bleached segment is driven negative.
func TestBleachRefreshAmplitudeBound(t *testing.T) {
	d, pins, ce, _ := newTestDisplay(2)
	d.segments[0].currentState = StateBleached
	d.segments[1].currentState = StateBleached
	pins[0].samples = []int{500, 50} // drifted high, forces the pass
	pins[1].samples = []int{100}     // healthy but sets the worst-case OCP

	if err := d.ExecuteDisplay(); err != nil {
		t.Fatal(err)
	}

	minAmp := 3.0/2 - 100.0*(3.0/1023.0)
	want := int(1023.0 * (minAmp / 3.0))
	if len(ce.levels) != 2 {
		t.Fatalf("CE levels = %v, want check reference + refresh amplitude", ce.levels)
	}
	if ce.levels[0] != 511 {
		t.Errorf("check CE level = %d, want 511", ce.levels[0])
	}
	if ce.levels[1] != want {
		t.Errorf("refresh CE level = %d, want %d (OCP-bounded)", ce.levels[1], want)
	}
	if pins[0].driveCount != 1 || pins[1].driveCount != 0 {
		t.Errorf("pulse counts = %d/%d, want 1/0", pins[0].driveCount, pins[1].driveCount)
	}
}

func TestCancellationBeforeExecute(t *testing.T) {
	d, pins, ce, _ := newTestDisplay(2)
	if err := d.SetSegmentState(0, true); err != nil {
		t.Fatal(err)
	}
	d.SetStopDrivingFlag()

	if err := d.ExecuteDisplay(); err != nil {
		t.Fatal(err)
	}

	if pins[0].driveCount != 0 {
		t.Error("segment driven despite stop request")
	}
	if len(ce.levels) != 0 {
		t.Errorf("CE driven despite stop request: %v", ce.levels)
	}
	if !d.colorRequired {
		t.Error("pending flag lost on a stopped pipeline")
	}

	// Clearing the token lets a later execute resume the pending work.
	d.ClearStopDriving()
	pins[0].samples = []int{960}
	if err := d.ExecuteDisplay(); err != nil {
		t.Fatal(err)
	}
	if st, _ := d.CurrentState(0); st != StateColored {
		t.Errorf("segment 0 = %v after resume, want colored", st)
	}
}

// Raising the token mid-pipeline returns before any later step runs: the
// second transition never happens and the CE is left as driven. No segment
// ends in a state outside bleached/colored/undefined.
func TestCancellationMidPipeline(t *testing.T) {
	d, pins, ce, clock := newTestDisplay(2)
	if err := d.SetSegmentState(0, false); err != nil {
		t.Fatal(err)
	}
	if err := d.SetSegmentState(1, true); err != nil {
		t.Fatal(err)
	}
	// Sleep 1 is the CE settle, sleep 2 the bleach pulse hold.
	clock.onSleep = func(n int, _ time.Duration) {
		if n == 2 {
			d.SetStopDrivingFlag()
		}
	}

	if err := d.ExecuteDisplay(); err != nil {
		t.Fatal(err)
	}

	if st, _ := d.CurrentState(0); st != StateBleached {
		t.Errorf("segment 0 = %v, want bleached", st)
	}
	if st, _ := d.CurrentState(1); st != StateUndefined {
		t.Errorf("segment 1 = %v, want undefined (transition skipped)", st)
	}
	if pins[1].driveCount != 0 {
		t.Error("second transition drove its segment after the stop point")
	}
	if ce.releaseCount != 1 {
		t.Errorf("CE releaseCount = %d, want 1 (final release skipped)", ce.releaseCount)
	}
	for i := range pins {
		st, _ := d.CurrentState(i)
		switch st {
		case StateBleached, StateColored, StateUndefined:
		default:
			t.Errorf("segment %d in invalid state %d", i, st)
		}
	}
}

// Begin on a 3-segment display: all colored, then all bleached, both pending
// flags clear.
func TestBegin(t *testing.T) {
	d, pins, ce, _ := newTestDisplay(3)
	for _, p := range pins {
		p.samples = []int{960, 200}
	}

	if err := d.Begin(); err != nil {
		t.Fatal(err)
	}

	for i := range pins {
		if st, _ := d.CurrentState(i); st != StateBleached {
			t.Errorf("segment %d = %v, want bleached", i, st)
		}
		if pins[i].driveCount != 2 {
			t.Errorf("segment %d driveCount = %d, want 2 (one color, one bleach)", i, pins[i].driveCount)
		}
	}
	if d.colorRequired || d.bleachRequired {
		t.Error("pending flags set after Begin")
	}
	if ce.releaseCount != 3 {
		t.Errorf("CE releaseCount = %d, want 3", ce.releaseCount)
	}
}

func TestSetAllSegmentsBleach(t *testing.T) {
	d, pins, _, _ := newTestDisplay(3)
	for _, p := range pins {
		p.samples = []int{960, 200}
	}
	if err := d.Begin(); err != nil {
		t.Fatal(err)
	}

	// Already bleached: a bulk request must be a no-op.
	d.SetAllSegmentsBleach()
	if d.bleachRequired {
		t.Error("bulk bleach of an already bleached panel raised the pending flag")
	}
}
