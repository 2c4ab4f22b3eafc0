// Package websocket is the push side of the gateway. Clients open one
// socket per (game, player) pair and receive the room snapshot on
// every committed mutation; the HTTP API remains the mutation path.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/gesturegames/rps-backend/internal/apperror"
	"github.com/gesturegames/rps-backend/internal/entity"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 20 * time.Second

	maxInboundMessageSize = 512
)

type registry interface {
	GetState(ctx context.Context, gameID string) (*entity.Snapshot, error)
}

type Server struct {
	logger   *slog.Logger
	registry registry
	hub      *Hub

	upgrader websocket.Upgrader
}

func New(logger *slog.Logger, registry registry, hub *Hub) *Server {
	return &Server{
		logger:   logger.With("component", "websocket"),
		registry: registry,
		hub:      hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the browser clients are served from another origin
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
	}
}

// Router builds the push endpoint.
func (that *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Get("/ws/{game_id}/{player_id}", that.handleSubscribe)

	return router
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.Router(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// handleSubscribe upgrades the connection and pumps snapshots until
// the socket dies. Reconnecting is just opening a new socket with the
// same pair; the current snapshot is delivered immediately, so a
// dropped connection never loses match state.
func (that *Server) handleSubscribe(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "handleSubscribe")

	gameID := chi.URLParam(req, "game_id")
	playerID := chi.URLParam(req, "player_id")

	snapshot, err := that.registry.GetState(req.Context(), gameID)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		http.Error(writer, "room not found", http.StatusNotFound)
		return
	}

	if err != nil {
		log.Error("failed to get room state", "gameID", gameID, "error", err)
		http.Error(writer, "internal error", http.StatusInternalServerError)
		return
	}

	if !snapshotHasPlayer(snapshot, playerID) {
		http.Error(writer, "player is not in this room", http.StatusForbidden)
		return
	}

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	log = log.With("gameID", gameID, "playerID", playerID)
	log.Info("WebSocket connection established")

	sub := that.hub.Subscribe(gameID, playerID, conn)
	go that.hub.writePump(sub)

	// re-read after subscribing so a mutation committed between the
	// handshake check and the subscription still reaches this socket
	snapshot, err = that.registry.GetState(req.Context(), gameID)
	if err != nil {
		log.Error("failed to load initial snapshot", "error", err)
		that.hub.Unsubscribe(sub)
		return
	}

	if err = that.hub.Send(sub, snapshot); err != nil {
		log.Error("failed to queue initial snapshot", "error", err)
		that.hub.Unsubscribe(sub)
		return
	}

	go that.pingLoop(conn, sub)
	that.readLoop(conn, sub, log)
}

// readLoop drains the socket so close frames and pongs are processed.
// The push channel is one-way; any data the client sends is ignored.
func (that *Server) readLoop(conn *websocket.Conn, sub *Subscriber, log *slog.Logger) {
	defer that.hub.Unsubscribe(sub)

	conn.SetReadLimit(maxInboundMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Info("subscriber dropped", "error", err)
			}
			return
		}
	}
}

// pingLoop keeps the connection alive and lets dead peers time out
// via the read deadline.
func (that *Server) pingLoop(conn *websocket.Conn, sub *Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		if err != nil {
			that.hub.Unsubscribe(sub)
			return
		}
	}
}

func snapshotHasPlayer(snapshot *entity.Snapshot, playerID string) bool {
	for _, view := range snapshot.Players {
		if view.PlayerID == playerID {
			return true
		}
	}

	return false
}
