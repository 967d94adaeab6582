// Package ecd drives segmented electrochromic displays.
//
// An electrochromic segment is bi-stable: a short voltage pulse colors or
// bleaches it and the optical state is retained after the pulse with no
// continuous power draw. Retained charge slowly leaks away, so the engine
// periodically measures each segment's open-circuit potential (OCP) and
// applies short corrective refresh pulses when a segment has drifted too far
// from its target state.
//
// All segments share one counter electrode (CE). A transition is produced by
// setting the CE to a reference voltage and driving the selected working
// electrodes against it for a configured pulse time; everything is then
// returned to high impedance to preserve bi-stability.
//
// The engine is single-threaded and cooperative: ExecuteDisplay runs the full
// pipeline (bleach transition, color transition, OCP check, adaptive refresh,
// CE release) to completion in the calling goroutine. A StopToken interrupts
// it at defined safe points and may be set from any goroutine.
//
// Hardware access goes through the SegmentPin, CounterElectrode and Clock
// interfaces; see the board package for the periph.io-backed implementation.
package ecd
