package ecd

// SegmentState is the electrochemical state of one segment.
type SegmentState int8

const (
	// StateUndefined is the power-up state: the segment was never driven and
	// its optical state is unknown. Undefined segments are never refreshed.
	StateUndefined SegmentState = iota - 1
	// StateBleached is the transparent (off) state.
	StateBleached
	// StateColored is the colored (on) state.
	StateColored
)

func (s SegmentState) String() string {
	switch s {
	case StateBleached:
		return "bleached"
	case StateColored:
		return "colored"
	default:
		return "undefined"
	}
}
