package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gesturegames/rps-backend/internal/apperror"
	"github.com/gesturegames/rps-backend/internal/entity"
	"github.com/gesturegames/rps-backend/pkg/rps"
)

const maxBodyBytes = 4 << 10

// Registry is the slice of the match registry the HTTP API needs.
type Registry interface {
	CreateRoom(ctx context.Context, playerName string) (*entity.Snapshot, *entity.Player, error)
	JoinRoom(ctx context.Context, gameID, playerName string) (*entity.Snapshot, *entity.Player, error)
	SetReady(ctx context.Context, gameID, playerID string) (*entity.Snapshot, error)
	SubmitMove(ctx context.Context, gameID, playerID string, move rps.Move) (*entity.Snapshot, error)
	GetState(ctx context.Context, gameID string) (*entity.Snapshot, error)
	ResetRound(ctx context.Context, gameID string) (*entity.Snapshot, error)
}

type Handlers struct {
	logger   *slog.Logger
	registry Registry
}

func NewHandlers(logger *slog.Logger, registry Registry) *Handlers {
	return &Handlers{
		logger:   logger.With("component", "rest"),
		registry: registry,
	}
}

type createRoomRequest struct {
	PlayerName string `json:"player_name"`
}

type createRoomResponse struct {
	GameID   string      `json:"game_id"`
	PlayerID string      `json:"player_id"`
	Role     entity.Role `json:"role"`
}

type joinRoomRequest struct {
	PlayerName string `json:"player_name"`
}

type joinRoomResponse struct {
	PlayerID string      `json:"player_id"`
	Role     entity.Role `json:"role"`
}

type setReadyRequest struct {
	PlayerID string `json:"player_id"`
}

type submitMoveRequest struct {
	PlayerID string   `json:"player_id"`
	Move     rps.Move `json:"move"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *Handlers) Ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *Handlers) CreateRoom(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "CreateRoom")

	var req createRoomRequest
	if !that.decode(w, r, &req) {
		return
	}

	snapshot, player, err := that.registry.CreateRoom(r.Context(), req.PlayerName)
	if err != nil {
		log.Error("failed to create room", "error", err)
		that.writeRegistryError(w, err)
		return
	}

	log.Info("room created", "gameID", snapshot.GameID)

	that.writeJSON(w, http.StatusCreated, createRoomResponse{
		GameID:   snapshot.GameID,
		PlayerID: player.ID,
		Role:     player.Role,
	})
}

func (that *Handlers) JoinRoom(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "JoinRoom")

	gameID := chi.URLParam(r, "game_id")

	var req joinRoomRequest
	if !that.decode(w, r, &req) {
		return
	}

	_, player, err := that.registry.JoinRoom(r.Context(), gameID, req.PlayerName)
	if err != nil {
		log.Info("failed to join room", "gameID", gameID, "error", err)
		that.writeRegistryError(w, err)
		return
	}

	log.Info("player joined", "gameID", gameID, "playerID", player.ID)

	that.writeJSON(w, http.StatusOK, joinRoomResponse{
		PlayerID: player.ID,
		Role:     player.Role,
	})
}

func (that *Handlers) SetReady(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "SetReady")

	gameID := chi.URLParam(r, "game_id")

	var req setReadyRequest
	if !that.decode(w, r, &req) {
		return
	}

	snapshot, err := that.registry.SetReady(r.Context(), gameID, req.PlayerID)
	if err != nil {
		log.Info("failed to set ready", "gameID", gameID, "error", err)
		that.writeRegistryError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, snapshot)
}

func (that *Handlers) SubmitMove(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "SubmitMove")

	gameID := chi.URLParam(r, "game_id")

	var req submitMoveRequest
	if !that.decode(w, r, &req) {
		return
	}

	snapshot, err := that.registry.SubmitMove(r.Context(), gameID, req.PlayerID, req.Move)
	if err != nil {
		log.Info("failed to submit move", "gameID", gameID, "error", err)
		that.writeRegistryError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, snapshot)
}

func (that *Handlers) GetState(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")

	snapshot, err := that.registry.GetState(r.Context(), gameID)
	if err != nil {
		that.writeRegistryError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, snapshot)
}

func (that *Handlers) ResetRound(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ResetRound")

	gameID := chi.URLParam(r, "game_id")

	snapshot, err := that.registry.ResetRound(r.Context(), gameID)
	if err != nil {
		log.Info("failed to reset round", "gameID", gameID, "error", err)
		that.writeRegistryError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, snapshot)
}

func (that *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}

	return true
}

// writeRegistryError maps registry errors onto distinguishable status
// codes so clients can react instead of treating everything as a 500.
func (that *Handlers) writeRegistryError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperror.ErrRoomNotFound), errors.Is(err, apperror.ErrPlayerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrRoomFull), errors.Is(err, apperror.ErrNotReady):
		status = http.StatusConflict
	case errors.Is(err, apperror.ErrInvalidMove):
		status = http.StatusBadRequest
	}

	that.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (that *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}
