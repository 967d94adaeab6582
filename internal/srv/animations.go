package srv

import (
	"time"
)

// Animation identifies one of the built-in demo sequences. The sequences
// mirror the factory demo modes of the evaluation kits: they exercise plain
// transitions, full-panel swings and the direct-drive path.
type Animation int64

const (
	NO_ANIMATION Animation = iota
	BLINK_ANIMATION
	COUNT_UP_ANIMATION
	COUNT_DOWN_ANIMATION
	CHASE_ANIMATION
	DIRECT_ANIMATION
	END_ANIMATION
)

const (
	// Pause between animation steps, on top of the drive time itself.
	animationStepPeriod = 2 * time.Second
	// Hold time for the direct-drive animation pulses.
	directDriveHold = 1 * time.Second
)

func (a Animation) String() string {
	switch a {
	case NO_ANIMATION:
		return "none"
	case BLINK_ANIMATION:
		return "blink"
	case COUNT_UP_ANIMATION:
		return "count up"
	case COUNT_DOWN_ANIMATION:
		return "count down"
	case CHASE_ANIMATION:
		return "chase"
	case DIRECT_ANIMATION:
		return "direct drive"
	default:
		return "unknown"
	}
}

// animationPeriod returns the number of steps before the sequence wraps.
func animationPeriod(a Animation, segmentCount int) int {
	switch a {
	case BLINK_ANIMATION, DIRECT_ANIMATION:
		return 2
	case COUNT_UP_ANIMATION, COUNT_DOWN_ANIMATION:
		return segmentCount + 1
	case CHASE_ANIMATION:
		return segmentCount
	default:
		return 1
	}
}

// animationFrame returns the target state of every segment for one step of
// an animation. The step counter is free-running; the frame wraps on the
// animation's own period.
func animationFrame(a Animation, step int, segmentCount int) []bool {
	targets := make([]bool, segmentCount)
	if segmentCount == 0 {
		return targets
	}
	phase := step % animationPeriod(a, segmentCount)

	switch a {
	case BLINK_ANIMATION, DIRECT_ANIMATION:
		if phase == 0 {
			for i := range targets {
				targets[i] = true
			}
		}
	case COUNT_UP_ANIMATION:
		for i := 0; i < phase; i++ {
			targets[i] = true
		}
	case COUNT_DOWN_ANIMATION:
		for i := 0; i < segmentCount-phase; i++ {
			targets[i] = true
		}
	case CHASE_ANIMATION:
		targets[phase] = true
	}
	return targets
}
