package entity

import "github.com/gesturegames/rps-backend/pkg/rps"

// Role is the seat a player occupies within a room. Every room has at
// most one of each.
type Role string

const (
	RoleA Role = "A"
	RoleB Role = "B"
)

// MaxNameLength bounds the user-supplied display name, in runes.
const MaxNameLength = 32

type Player struct {
	ID    string   `json:"player_id"`
	Name  string   `json:"name"`
	Role  Role     `json:"role"`
	Ready bool     `json:"ready"`
	Move  rps.Move `json:"move,omitempty"`
}

// NewPlayer creates a player with a clamped display name. The seat is
// assigned when the player enters a room.
func NewPlayer(id, name string) *Player {
	// clamp on rune boundaries so a multi-byte name stays valid UTF-8
	if runes := []rune(name); len(runes) > MaxNameLength {
		name = string(runes[:MaxNameLength])
	}

	return &Player{
		ID:   id,
		Name: name,
	}
}

// HasMoved reports whether the player has submitted a move for the
// current round.
func (that *Player) HasMoved() bool {
	return that.Move != ""
}
