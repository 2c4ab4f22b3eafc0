package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gesturegames/rps-backend/internal/apperror"
	"github.com/gesturegames/rps-backend/internal/entity"
	"github.com/gesturegames/rps-backend/internal/pkg"
	"github.com/gesturegames/rps-backend/pkg/rps"
)

const createIDAttempts = 5

var ErrIDExhausted = errors.New("could not allocate an unused game id")

type roomRepo interface {
	Save(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	DeleteByID(ctx context.Context, id string) error
}

// broadcaster receives every committed room mutation. Delivery is
// best-effort and must never fail the mutation itself.
type broadcaster interface {
	BroadcastRoom(gameID string, snapshot *entity.Snapshot)
}

// MatchRegistry is the authoritative state machine for all rooms.
// Mutations on one room are serialized by a per-room lock; different
// rooms proceed independently.
type MatchRegistry struct {
	logger   *slog.Logger
	roomRepo roomRepo

	broadcaster broadcaster

	locks sync.Map // gameID -> *sync.Mutex
}

func NewMatchRegistry(logger *slog.Logger, roomRepo roomRepo) *MatchRegistry {
	return &MatchRegistry{
		logger:   logger,
		roomRepo: roomRepo,
	}
}

// SetBroadcaster wires the push channel in. Must be called before the
// registry starts serving; a nil broadcaster disables push delivery.
func (that *MatchRegistry) SetBroadcaster(b broadcaster) {
	that.broadcaster = b
}

// CreateRoom allocates a new room with the caller seated on role A.
func (that *MatchRegistry) CreateRoom(ctx context.Context, playerName string) (*entity.Snapshot, *entity.Player, error) {
	gameID, err := that.allocateGameID(ctx)
	if err != nil {
		return nil, nil, err
	}

	unlock := that.lockRoom(gameID)
	defer unlock()

	room := entity.NewRoom(gameID)
	player := entity.NewPlayer(pkg.GeneratePlayerID(), playerName)

	if err = room.AddPlayer(player); err != nil {
		return nil, nil, fmt.Errorf("failed to seat creator: %w", err)
	}

	if err = that.roomRepo.Save(ctx, room); err != nil {
		return nil, nil, fmt.Errorf("failed to save room: %w", err)
	}

	that.logger.Info("room created", "gameID", gameID, "playerID", player.ID)

	snapshot := room.Snapshot()
	that.publish(snapshot)

	return snapshot, player, nil
}

// JoinRoom seats a second player on role B.
func (that *MatchRegistry) JoinRoom(ctx context.Context, gameID, playerName string) (*entity.Snapshot, *entity.Player, error) {
	unlock := that.lockRoom(gameID)
	defer unlock()

	room, err := that.roomRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get room: %w", err)
	}

	player := entity.NewPlayer(pkg.GeneratePlayerID(), playerName)
	if err = room.AddPlayer(player); err != nil {
		return nil, nil, err
	}

	if err = that.roomRepo.Save(ctx, room); err != nil {
		return nil, nil, fmt.Errorf("failed to save room: %w", err)
	}

	that.logger.Info("player joined room", "gameID", gameID, "playerID", player.ID)

	snapshot := room.Snapshot()
	that.publish(snapshot)

	return snapshot, player, nil
}

// SetReady marks the player ready for the current round. Calling it
// again while already ready is a no-op, not an error.
func (that *MatchRegistry) SetReady(ctx context.Context, gameID, playerID string) (*entity.Snapshot, error) {
	return that.mutate(ctx, gameID, func(room *entity.Room) error {
		return room.MarkReady(playerID)
	})
}

// SubmitMove records the player's move and resolves the round once
// both seats have submitted.
func (that *MatchRegistry) SubmitMove(ctx context.Context, gameID, playerID string, move rps.Move) (*entity.Snapshot, error) {
	return that.mutate(ctx, gameID, func(room *entity.Room) error {
		return room.RecordMove(playerID, move)
	})
}

// ResetRound starts a fresh round with the same players and seats.
func (that *MatchRegistry) ResetRound(ctx context.Context, gameID string) (*entity.Snapshot, error) {
	return that.mutate(ctx, gameID, func(room *entity.Room) error {
		room.ResetRound()
		return nil
	})
}

// GetState returns the current snapshot. It is the polling fallback
// and must always reflect the latest committed state.
func (that *MatchRegistry) GetState(ctx context.Context, gameID string) (*entity.Snapshot, error) {
	room, err := that.roomRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room.Snapshot(), nil
}

// DeleteRoom tears a room down explicitly. Expiry handles the rooms
// nobody bothers to close.
func (that *MatchRegistry) DeleteRoom(ctx context.Context, gameID string) error {
	unlock := that.lockRoom(gameID)
	defer unlock()

	if err := that.roomRepo.DeleteByID(ctx, gameID); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	that.locks.Delete(gameID)
	that.logger.Info("room deleted", "gameID", gameID)

	return nil
}

// mutate runs fn on the room under its lock and persists the result.
// The snapshot is published only after the save commits.
func (that *MatchRegistry) mutate(ctx context.Context, gameID string, fn func(room *entity.Room) error) (*entity.Snapshot, error) {
	unlock := that.lockRoom(gameID)
	defer unlock()

	room, err := that.roomRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	if err = fn(room); err != nil {
		return nil, err
	}

	if err = that.roomRepo.Save(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to save room: %w", err)
	}

	snapshot := room.Snapshot()
	that.publish(snapshot)

	return snapshot, nil
}

func (that *MatchRegistry) lockRoom(gameID string) func() {
	lock, _ := that.locks.LoadOrStore(gameID, &sync.Mutex{})
	mu, _ := lock.(*sync.Mutex)
	mu.Lock()

	return mu.Unlock
}

func (that *MatchRegistry) publish(snapshot *entity.Snapshot) {
	if that.broadcaster == nil {
		return
	}

	that.broadcaster.BroadcastRoom(snapshot.GameID, snapshot)
}

// allocateGameID draws short ids until one is free. Collisions are
// rare enough that a handful of attempts is plenty.
func (that *MatchRegistry) allocateGameID(ctx context.Context) (string, error) {
	for i := 0; i < createIDAttempts; i++ {
		gameID := pkg.GenerateGameID()
		if gameID == "" {
			continue
		}

		if _, err := that.roomRepo.GetByID(ctx, gameID); errors.Is(err, apperror.ErrRoomNotFound) {
			return gameID, nil
		}
	}

	return "", ErrIDExhausted
}
