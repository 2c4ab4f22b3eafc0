package gesture

import "github.com/gesturegames/rps-backend/pkg/rps"

// DefaultWindow is the stabilizer window used by the reference
// capture pipeline, tuned for roughly a third of a second of frames.
const DefaultWindow = 10

// Stabilizer suppresses single-frame misclassifications by requiring
// a move to hold a strict majority of a recent window before it is
// reported. A fresh instance has no history; there is no state shared
// across instances.
type Stabilizer struct {
	window []rps.Move
	next   int
	filled int
}

// NewStabilizer creates a stabilizer over a window of the given
// capacity. A capacity below one falls back to DefaultWindow.
func NewStabilizer(window int) *Stabilizer {
	if window < 1 {
		window = DefaultWindow
	}

	return &Stabilizer{
		window: make([]rps.Move, window),
	}
}

// Update appends move to the window, evicting the oldest frame once
// the window is full, and returns the stabilized move.
//
// Until the window has filled there is not enough history and the
// result is MoveNone unconditionally. After that, the most frequent
// move is returned only if it occurs strictly more often than half
// the window capacity; ties and near-ties yield MoveNone.
func (that *Stabilizer) Update(move rps.Move) rps.Move {
	that.window[that.next] = move
	that.next = (that.next + 1) % len(that.window)

	if that.filled < len(that.window) {
		that.filled++
	}

	if that.filled < len(that.window) {
		return rps.MoveNone
	}

	counts := make(map[rps.Move]int, 4)
	best, bestCount := rps.MoveNone, 0

	for _, m := range that.window {
		counts[m]++
		if counts[m] > bestCount {
			best, bestCount = m, counts[m]
		}
	}

	if bestCount <= len(that.window)/2 {
		return rps.MoveNone
	}

	return best
}
