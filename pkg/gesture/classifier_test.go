package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gesturegames/rps-backend/pkg/rps"
)

// fingers describes a synthetic frame: which of the four non-thumb
// fingers are raised, and whether the thumb is out.
type fingers struct {
	index, middle, ring, pinky bool
	thumb                      bool
}

// makeHand builds a 21-point frame for the given finger state. Pip
// joints sit at y=0.5; a raised fingertip sits above at y=0.3, a
// curled one below at y=0.6. The thumb inner joint sits at x=0.5 with
// the tip placed laterally according to handedness.
func makeHand(f fingers, handedness Handedness) []Point {
	landmarks := make([]Point, LandmarkCount)
	for i := range landmarks {
		landmarks[i] = Point{X: 0.5, Y: 0.5}
	}

	tips := map[int]bool{
		idxIndexTip:  f.index,
		idxMiddleTip: f.middle,
		idxRingTip:   f.ring,
		idxPinkyTip:  f.pinky,
	}
	for tip, raised := range tips {
		if raised {
			landmarks[tip].Y = 0.3
		} else {
			landmarks[tip].Y = 0.6
		}
	}

	out := 0.6
	if handedness == HandLeft {
		out = 0.4
	}
	if f.thumb {
		landmarks[idxThumbTip].X = out
	} else {
		landmarks[idxThumbTip].X = 1.0 - out
	}

	return landmarks
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		state    fingers
		expected rps.Move
	}{
		{"closed fist is rock", fingers{}, rps.MoveRock},
		{"open palm is paper", fingers{index: true, middle: true, ring: true, pinky: true, thumb: true}, rps.MovePaper},
		{"index and middle is scissors", fingers{index: true, middle: true}, rps.MoveScissors},
		{"scissors ignores the thumb", fingers{index: true, middle: true, thumb: true}, rps.MoveScissors},
		{"four fingers without thumb is ambiguous", fingers{index: true, middle: true, ring: true, pinky: true}, rps.MoveNone},
		{"fist with thumb out is ambiguous", fingers{thumb: true}, rps.MoveNone},
		{"index alone is ambiguous", fingers{index: true}, rps.MoveNone},
		{"ring and pinky is ambiguous", fingers{ring: true, pinky: true}, rps.MoveNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Then: both hands classify the same state identically
			require.Equal(t, tt.expected, Classify(makeHand(tt.state, HandRight), HandRight))
			require.Equal(t, tt.expected, Classify(makeHand(tt.state, HandLeft), HandLeft))
		})
	}
}

func TestClassify_NoHand(t *testing.T) {
	// When: the frame has no landmarks at all
	assert.Equal(t, rps.MoveNone, Classify(nil, HandRight))

	// When: the frame is truncated
	assert.Equal(t, rps.MoveNone, Classify(make([]Point, 5), HandRight))
}

func TestClassify_HandednessFlipsThumb(t *testing.T) {
	// Given: a paper hand posed for the right hand
	hand := makeHand(fingers{index: true, middle: true, ring: true, pinky: true, thumb: true}, HandRight)

	// Then: read as a right hand the thumb is out and it is paper
	require.Equal(t, rps.MovePaper, Classify(hand, HandRight))

	// Then: read as a left hand the same thumb counts as curled
	require.Equal(t, rps.MoveNone, Classify(hand, HandLeft))
}
