// Package rps implements the core rules of rock paper scissors.
package rps

// Move is a single play in a round. MoveNone means "no definite
// gesture" and is produced by the gesture pipeline; it is never a
// legal submission.
type Move string

const (
	MoveRock     Move = "rock"
	MovePaper    Move = "paper"
	MoveScissors Move = "scissors"
	MoveNone     Move = "none"
)

// Outcome names the winner of a round from the point of view of the
// two seats that played it.
type Outcome string

const (
	OutcomeFirst  Outcome = "first"
	OutcomeSecond Outcome = "second"
	OutcomeDraw   Outcome = "draw"
)

var winnerMap = map[Move]Move{
	MoveRock:     MoveScissors,
	MoveScissors: MovePaper,
	MovePaper:    MoveRock,
}

// IsValid reports whether move is a legal submission.
func (that Move) IsValid() bool {
	_, ok := winnerMap[that]
	return ok
}

// Beats reports whether first wins over second under the classic
// rules. Identical or invalid moves never beat anything.
func Beats(first, second Move) bool {
	return winnerMap[first] == second && first != second
}

// Resolve applies the round rule to two submitted moves. An invalid
// move is a forfeit and the other side wins; if both sides forfeit
// the round is a draw.
func Resolve(first, second Move) Outcome {
	switch {
	case !first.IsValid() && !second.IsValid():
		return OutcomeDraw
	case !first.IsValid():
		return OutcomeSecond
	case !second.IsValid():
		return OutcomeFirst
	case first == second:
		return OutcomeDraw
	case Beats(first, second):
		return OutcomeFirst
	default:
		return OutcomeSecond
	}
}
