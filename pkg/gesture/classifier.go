// Package gesture turns hand landmark frames into rock paper scissors
// moves. Classification is a finger-counting heuristic over the 21
// landmark points produced by an external hand detector; a majority
// filter smooths the per-frame output before anything is submitted.
package gesture

import "github.com/gesturegames/rps-backend/pkg/rps"

// LandmarkCount is the number of points the hand detector emits per
// frame.
const LandmarkCount = 21

// Landmark indexes follow the detector's hand topology.
const (
	idxThumbIP   = 3
	idxThumbTip  = 4
	idxIndexTip  = 8
	idxMiddleTip = 12
	idxRingTip   = 16
	idxPinkyTip  = 20

	// A fingertip's pip joint sits two indexes before the tip.
	pipOffset = 2
)

// Point is a single landmark in normalized image coordinates, origin
// at the top-left corner (y grows downward).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Handedness labels which hand the landmarks belong to, as reported
// by the detector for the mirrored self-view.
type Handedness string

const (
	HandLeft  Handedness = "left"
	HandRight Handedness = "right"
)

// Classify maps one frame of landmarks to a move.
//
// A non-thumb finger counts as extended when its tip is above its pip
// joint. The thumb counts as extended when its tip is lateral to its
// inner joint, with the direction depending on handedness. An empty
// or malformed frame classifies as MoveNone, never as an error;
// callers must tolerate MoveNone as the common case.
func Classify(landmarks []Point, handedness Handedness) rps.Move {
	if len(landmarks) != LandmarkCount {
		return rps.MoveNone
	}

	extended := func(tip int) bool {
		return landmarks[tip].Y < landmarks[tip-pipOffset].Y
	}

	index := extended(idxIndexTip)
	middle := extended(idxMiddleTip)
	ring := extended(idxRingTip)
	pinky := extended(idxPinkyTip)
	thumb := thumbExtended(landmarks, handedness)

	switch {
	case !index && !middle && !ring && !pinky && !thumb:
		return rps.MoveRock
	case index && middle && ring && pinky && thumb:
		return rps.MovePaper
	case index && middle && !ring && !pinky:
		// thumb state is irrelevant for scissors
		return rps.MoveScissors
	default:
		return rps.MoveNone
	}
}

// thumbExtended checks the tip against the inner joint on the x axis.
// The comparison flips with handedness because the thumb points the
// other way on the other hand.
func thumbExtended(landmarks []Point, handedness Handedness) bool {
	tip, ip := landmarks[idxThumbTip].X, landmarks[idxThumbIP].X

	if handedness == HandLeft {
		return tip < ip
	}

	return tip > ip
}
