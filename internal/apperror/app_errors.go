package apperror

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is already full")
	ErrPlayerNotFound = errors.New("player is not in this room")
	ErrNotReady       = errors.New("round is not in progress")
	ErrInvalidMove    = errors.New("move is not a recognized value")
)
