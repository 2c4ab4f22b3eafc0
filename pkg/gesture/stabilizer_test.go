package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gesturegames/rps-backend/pkg/rps"
)

func TestStabilizer_InsufficientHistory(t *testing.T) {
	// Given: a fresh stabilizer with the default window
	stab := NewStabilizer(DefaultWindow)

	// When: one frame short of a full window is fed
	for i := 0; i < DefaultWindow-1; i++ {
		// Then: every partial-window update reports none
		require.Equal(t, rps.MoveNone, stab.Update(rps.MoveRock))
	}
}

func TestStabilizer_UnanimousWindow(t *testing.T) {
	// Given: a fresh stabilizer
	stab := NewStabilizer(DefaultWindow)

	// When: a full window of identical moves is fed
	var got rps.Move
	for i := 0; i < DefaultWindow; i++ {
		got = stab.Update(rps.MoveRock)
	}

	// Then: the move dominates and is reported
	require.Equal(t, rps.MoveRock, got)
}

func TestStabilizer_NoMajority(t *testing.T) {
	// Given: a window evenly split between two moves
	stab := NewStabilizer(10)

	for i := 0; i < 5; i++ {
		stab.Update(rps.MoveRock)
	}
	var got rps.Move
	for i := 0; i < 5; i++ {
		got = stab.Update(rps.MovePaper)
	}

	// Then: neither move holds a strict majority
	require.Equal(t, rps.MoveNone, got)
}

func TestStabilizer_MajorityAfterFlicker(t *testing.T) {
	// Given: a full window of rock
	stab := NewStabilizer(10)
	for i := 0; i < 10; i++ {
		stab.Update(rps.MoveRock)
	}

	// When: a few frames flicker to another move
	stab.Update(rps.MoveScissors)
	got := stab.Update(rps.MoveScissors)

	// Then: rock still dominates the window
	assert.Equal(t, rps.MoveRock, got)

	// When: the flicker keeps going until rock loses its majority
	for i := 0; i < 3; i++ {
		got = stab.Update(rps.MoveScissors)
	}

	// Then: five against five reports none
	assert.Equal(t, rps.MoveNone, got)
}

func TestStabilizer_FreshInstanceResets(t *testing.T) {
	// Given: a stabilizer with a full rock window
	stab := NewStabilizer(10)
	for i := 0; i < 10; i++ {
		stab.Update(rps.MoveRock)
	}

	// When: a new instance is constructed
	fresh := NewStabilizer(10)

	// Then: the new instance has no history
	require.Equal(t, rps.MoveNone, fresh.Update(rps.MoveRock))
}

func TestStabilizer_DefaultsBadWindow(t *testing.T) {
	// When: constructed with a nonsensical window
	stab := NewStabilizer(0)

	// Then: the default capacity applies
	require.Len(t, stab.window, DefaultWindow)
}
