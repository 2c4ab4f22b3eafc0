package entity

import "github.com/gesturegames/rps-backend/pkg/rps"

// PlayerView is the per-player slice of a snapshot. Moved tells the
// opponent a move is in without revealing it; the move value itself
// only appears once the round is resolved.
type PlayerView struct {
	PlayerID string   `json:"player_id"`
	Name     string   `json:"name"`
	Ready    bool     `json:"ready"`
	Moved    bool     `json:"moved"`
	Move     rps.Move `json:"move,omitempty"`
}

// Snapshot is the serializable view of a room, shared by the HTTP
// responses and the push channel.
type Snapshot struct {
	GameID  string              `json:"game_id"`
	State   string              `json:"round_state"`
	Players map[Role]PlayerView `json:"players"`
	Winner  string              `json:"winner,omitempty"`
}

// Snapshot renders the room for clients, hiding submitted moves until
// resolution so neither player can peek mid-round.
func (that *Room) Snapshot() *Snapshot {
	snapshot := &Snapshot{
		GameID:  that.ID,
		State:   that.State,
		Players: make(map[Role]PlayerView, len(that.Players)),
		Winner:  that.Winner,
	}

	for role, player := range that.Players {
		view := PlayerView{
			PlayerID: player.ID,
			Name:     player.Name,
			Ready:    player.Ready,
			Moved:    player.HasMoved(),
		}

		if that.IsResolved() {
			view.Move = player.Move
		}

		snapshot.Players[role] = view
	}

	return snapshot
}
