package srv

import (
	"testing"
)

func countColored(targets []bool) int {
	n := 0
	for _, t := range targets {
		if t {
			n++
		}
	}
	return n
}

func TestBlinkAlternates(t *testing.T) {
	for step := 0; step < 6; step++ {
		targets := animationFrame(BLINK_ANIMATION, step, 7)
		want := 0
		if step%2 == 0 {
			want = 7
		}
		if got := countColored(targets); got != want {
			t.Errorf("step %d: %d segments colored, want %d", step, got, want)
		}
	}
}

func TestCountUpFillsThenWraps(t *testing.T) {
	const n = 3
	wantPerStep := []int{0, 1, 2, 3, 0, 1}
	for step, want := range wantPerStep {
		targets := animationFrame(COUNT_UP_ANIMATION, step, n)
		if got := countColored(targets); got != want {
			t.Errorf("step %d: %d segments colored, want %d", step, got, want)
		}
		// The filled bars must be the leading ones.
		for i := 0; i < want; i++ {
			if !targets[i] {
				t.Errorf("step %d: segment %d not colored", step, i)
			}
		}
	}
}

func TestCountDownDrains(t *testing.T) {
	const n = 3
	wantPerStep := []int{3, 2, 1, 0, 3}
	for step, want := range wantPerStep {
		targets := animationFrame(COUNT_DOWN_ANIMATION, step, n)
		if got := countColored(targets); got != want {
			t.Errorf("step %d: %d segments colored, want %d", step, got, want)
		}
	}
}

func TestChaseSingleSegment(t *testing.T) {
	const n = 7
	for step := 0; step < 2*n; step++ {
		targets := animationFrame(CHASE_ANIMATION, step, n)
		if got := countColored(targets); got != 1 {
			t.Fatalf("step %d: %d segments colored, want 1", step, got)
		}
		if !targets[step%n] {
			t.Errorf("step %d: expected segment %d colored", step, step%n)
		}
	}
}

func TestFrameOnEmptyPanel(t *testing.T) {
	targets := animationFrame(CHASE_ANIMATION, 4, 0)
	if len(targets) != 0 {
		t.Errorf("expected empty frame, got %d targets", len(targets))
	}
}

func TestAnimationNames(t *testing.T) {
	for a := NO_ANIMATION; a < END_ANIMATION; a++ {
		if a.String() == "unknown" {
			t.Errorf("animation %d has no name", a)
		}
	}
}
