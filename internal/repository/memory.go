package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/gesturegames/rps-backend/internal/apperror"
	"github.com/gesturegames/rps-backend/internal/entity"
)

// memoryRoom is a map-backed RoomRepository for tests and deployments
// that do not need rooms to survive a restart.
type memoryRoom struct {
	mu    sync.RWMutex
	rooms map[string]*entity.Room
}

// NewMemoryRoomRepository constructs an in-memory RoomRepository.
func NewMemoryRoomRepository() RoomRepository {
	return &memoryRoom{
		rooms: make(map[string]*entity.Room),
	}
}

func (that *memoryRoom) Save(_ context.Context, room *entity.Room) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.rooms[room.ID] = cloneRoom(room)

	return nil
}

func (that *memoryRoom) GetByID(_ context.Context, id string) (*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, id)
	}

	return cloneRoom(room), nil
}

func (that *memoryRoom) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.rooms, id)

	return nil
}

// cloneRoom copies a room so callers never share state with the map,
// matching the isolation the Redis adapter gets from serialization.
func cloneRoom(room *entity.Room) *entity.Room {
	clone := *room
	clone.Players = make(map[entity.Role]*entity.Player, len(room.Players))

	for role, player := range room.Players {
		playerCopy := *player
		clone.Players[role] = &playerCopy
	}

	return &clone
}
