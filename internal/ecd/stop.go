package ecd

import "sync/atomic"

// StopToken cooperatively interrupts driving. The engine checks it before
// every drive step, every pulse hold and every re-sample; once set, the
// running pipeline returns at the next safe point leaving the display exactly
// as last driven.
//
// Each Display owns one token by default. Displays that must never be driven
// concurrently can share a single token through Opts, which also makes one
// Set interrupt whichever display is currently mid-operation. All methods are
// safe for concurrent use, so a button or API goroutine can set the token
// while a drive loop is blocking elsewhere.
type StopToken struct {
	flag atomic.Bool
}

// Set requests interruption of driving.
func (t *StopToken) Set() { t.flag.Store(true) }

// Clear re-allows driving.
func (t *StopToken) Clear() { t.flag.Store(false) }

// Stopped reports whether interruption is requested.
func (t *StopToken) Stopped() bool { return t.flag.Load() }
