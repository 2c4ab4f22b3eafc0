package entity

import (
	"fmt"

	"github.com/gesturegames/rps-backend/internal/apperror"
	"github.com/gesturegames/rps-backend/pkg/rps"
)

const (
	StateWaitingForPlayers = "waiting_for_players"
	StateWaitingForReady   = "waiting_for_ready"
	StateInProgress        = "in_progress"
	StateResolved          = "resolved"
)

// WinnerDraw marks a round neither seat won.
const WinnerDraw = "draw"

const maxPlayers = 2

// Room is a two-player match. All mutation is expected to be
// serialized per room by the caller; the methods themselves do no
// locking.
type Room struct {
	ID      string           `json:"id"`
	Players map[Role]*Player `json:"players"`
	State   string           `json:"round_state"`
	Winner  string           `json:"winner,omitempty"`
}

// NewRoom creates an empty room waiting for its first player.
func NewRoom(id string) *Room {
	return &Room{
		ID:      id,
		Players: make(map[Role]*Player, maxPlayers),
		State:   StateWaitingForPlayers,
	}
}

// AddPlayer seats the player on the first free role. Once both seats
// are taken the room starts waiting for the ready handshake.
func (that *Room) AddPlayer(player *Player) error {
	switch {
	case that.Players[RoleA] == nil:
		player.Role = RoleA
	case that.Players[RoleB] == nil:
		player.Role = RoleB
	default:
		return fmt.Errorf("%w: room %s", apperror.ErrRoomFull, that.ID)
	}

	that.Players[player.Role] = player
	that.advanceIfReady()

	return nil
}

// PlayerByID finds a seated player.
func (that *Room) PlayerByID(playerID string) (*Player, error) {
	for _, player := range that.Players {
		if player.ID == playerID {
			return player, nil
		}
	}

	return nil, fmt.Errorf("%w: player %s", apperror.ErrPlayerNotFound, playerID)
}

// MarkReady flags the player as ready for the current round. Calling
// it again while already ready is a no-op. The round goes in progress
// once both seated players are ready.
func (that *Room) MarkReady(playerID string) error {
	player, err := that.PlayerByID(playerID)
	if err != nil {
		return err
	}

	player.Ready = true
	that.advanceIfReady()

	return nil
}

// RecordMove stores the player's move for the current round and
// resolves the round once both seats have submitted. Re-submitting
// before resolution overwrites the previous value.
func (that *Room) RecordMove(playerID string, move rps.Move) error {
	player, err := that.PlayerByID(playerID)
	if err != nil {
		return err
	}

	if that.State != StateInProgress {
		return fmt.Errorf("%w: room %s is %s", apperror.ErrNotReady, that.ID, that.State)
	}

	if !move.IsValid() {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidMove, move)
	}

	player.Move = move

	playerA, playerB := that.Players[RoleA], that.Players[RoleB]
	if playerA.HasMoved() && playerB.HasMoved() {
		that.resolve(playerA.Move, playerB.Move)
	}

	return nil
}

// ResetRound clears readiness, moves and the winner while keeping
// both players and their seats. This is the play-again path.
func (that *Room) ResetRound() {
	for _, player := range that.Players {
		player.Ready = false
		player.Move = ""
	}

	that.Winner = ""

	if that.IsFull() {
		that.State = StateWaitingForReady
	} else {
		that.State = StateWaitingForPlayers
	}
}

func (that *Room) IsFull() bool {
	return len(that.Players) == maxPlayers
}

func (that *Room) IsResolved() bool {
	return that.State == StateResolved
}

// advanceIfReady moves the room forward when both seats are taken and
// every player has confirmed readiness.
func (that *Room) advanceIfReady() {
	if that.State != StateWaitingForPlayers && that.State != StateWaitingForReady {
		return
	}

	if !that.IsFull() {
		that.State = StateWaitingForPlayers
		return
	}

	that.State = StateWaitingForReady

	if that.Players[RoleA].Ready && that.Players[RoleB].Ready {
		that.State = StateInProgress
	}
}

// resolve applies the round rule to the two submitted moves.
func (that *Room) resolve(moveA, moveB rps.Move) {
	switch rps.Resolve(moveA, moveB) {
	case rps.OutcomeFirst:
		that.Winner = string(RoleA)
	case rps.OutcomeSecond:
		that.Winner = string(RoleB)
	case rps.OutcomeDraw:
		that.Winner = WinnerDraw
	}

	that.State = StateResolved
}
