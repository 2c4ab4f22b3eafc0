// Package client is a typed session for the match gateway. It holds
// the room/player bookkeeping the browser clients used to duplicate,
// exposes an explicit phase machine, and keeps the server's snapshot
// current over the push channel with polling as the fallback.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gesturegames/rps-backend/pkg/rps"
)

// Phase is where the session currently stands.
type Phase string

const (
	PhaseNoRoom    Phase = "no_room"
	PhaseLobby     Phase = "lobby"
	PhaseReadyWait Phase = "ready_wait"
	PhaseInRound   Phase = "in_round"
	PhaseResolved  Phase = "resolved"
)

const (
	httpTimeout = 15 * time.Second

	reconnectMinDelay = time.Second
	reconnectMaxDelay = 30 * time.Second
)

// ErrNoDefiniteGesture rejects a submission gated on the stabilizer
// while it still reports none.
var ErrNoDefiniteGesture = errors.New("no definite gesture to submit")

// ErrNoRoom rejects room operations before a create or join.
var ErrNoRoom = errors.New("session has no room")

// APIError is a non-2xx gateway response.
type APIError struct {
	Status  int
	Message string
}

func (that *APIError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", that.Status, that.Message)
}

// PlayerView mirrors the gateway's per-player snapshot slice.
type PlayerView struct {
	PlayerID string   `json:"player_id"`
	Name     string   `json:"name"`
	Ready    bool     `json:"ready"`
	Moved    bool     `json:"moved"`
	Move     rps.Move `json:"move,omitempty"`
}

// Snapshot mirrors the gateway's room snapshot.
type Snapshot struct {
	GameID  string                `json:"game_id"`
	State   string                `json:"round_state"`
	Players map[string]PlayerView `json:"players"`
	Winner  string                `json:"winner,omitempty"`
}

// Session is a single player's connection to one room. All methods
// are safe for concurrent use.
type Session struct {
	apiURL     string
	socketURL  string
	httpClient *http.Client
	dialer     *websocket.Dialer

	mu       sync.RWMutex
	gameID   string
	playerID string
	role     string
	snapshot *Snapshot

	updates chan Snapshot
}

// New creates a session against the gateway's HTTP and WebSocket base
// URLs, e.g. "http://host:8080" and "ws://host:8081".
func New(apiURL, socketURL string) *Session {
	return &Session{
		apiURL:     apiURL,
		socketURL:  socketURL,
		httpClient: &http.Client{Timeout: httpTimeout},
		dialer:     websocket.DefaultDialer,
		updates:    make(chan Snapshot, 8),
	}
}

// CreateRoom opens a new room with the caller as host.
func (that *Session) CreateRoom(ctx context.Context, playerName string) error {
	var resp struct {
		GameID   string `json:"game_id"`
		PlayerID string `json:"player_id"`
		Role     string `json:"role"`
	}

	err := that.post(ctx, "/rooms", map[string]string{"player_name": playerName}, &resp)
	if err != nil {
		return err
	}

	that.mu.Lock()
	that.gameID = resp.GameID
	that.playerID = resp.PlayerID
	that.role = resp.Role
	that.mu.Unlock()

	return nil
}

// JoinRoom joins an existing room as guest. A failed join leaves the
// session in PhaseNoRoom so the caller can retry with another id.
func (that *Session) JoinRoom(ctx context.Context, gameID, playerName string) error {
	var resp struct {
		PlayerID string `json:"player_id"`
		Role     string `json:"role"`
	}

	path := "/rooms/" + url.PathEscape(gameID) + "/join"
	if err := that.post(ctx, path, map[string]string{"player_name": playerName}, &resp); err != nil {
		return err
	}

	that.mu.Lock()
	that.gameID = gameID
	that.playerID = resp.PlayerID
	that.role = resp.Role
	that.mu.Unlock()

	return nil
}

// Ready confirms readiness for the current round.
func (that *Session) Ready(ctx context.Context) error {
	gameID, playerID := that.ids()
	if gameID == "" {
		return ErrNoRoom
	}

	var snapshot Snapshot
	path := "/rooms/" + url.PathEscape(gameID) + "/ready"
	if err := that.post(ctx, path, map[string]string{"player_id": playerID}, &snapshot); err != nil {
		return err
	}

	that.storeSnapshot(snapshot)

	return nil
}

// Submit sends the stabilized move for the current round. The none
// value never goes on the wire; submission is gated on a definite
// stabilized gesture.
func (that *Session) Submit(ctx context.Context, move rps.Move) error {
	if !move.IsValid() {
		return fmt.Errorf("%w: %q", ErrNoDefiniteGesture, move)
	}

	gameID, playerID := that.ids()
	if gameID == "" {
		return ErrNoRoom
	}

	var snapshot Snapshot
	path := "/rooms/" + url.PathEscape(gameID) + "/move"
	body := map[string]string{"player_id": playerID, "move": string(move)}
	if err := that.post(ctx, path, body, &snapshot); err != nil {
		return err
	}

	that.storeSnapshot(snapshot)

	return nil
}

// PlayAgain resets the room for another round with the same players.
func (that *Session) PlayAgain(ctx context.Context) error {
	gameID, _ := that.ids()
	if gameID == "" {
		return ErrNoRoom
	}

	var snapshot Snapshot
	path := "/rooms/" + url.PathEscape(gameID) + "/reset"
	if err := that.post(ctx, path, map[string]string{}, &snapshot); err != nil {
		return err
	}

	that.storeSnapshot(snapshot)

	return nil
}

// Refresh pulls the current snapshot over HTTP. It is the idempotent
// read behind polling and never mutates room state.
func (that *Session) Refresh(ctx context.Context) error {
	gameID, _ := that.ids()
	if gameID == "" {
		return ErrNoRoom
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, that.apiURL+"/rooms/"+url.PathEscape(gameID), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	var snapshot Snapshot
	if err = that.do(req, &snapshot); err != nil {
		return err
	}

	that.storeSnapshot(snapshot)

	return nil
}

// Listen keeps a push connection open until ctx is canceled,
// redialing with exponential backoff after every drop. Each received
// snapshot is stored on the session and forwarded to Updates.
func (that *Session) Listen(ctx context.Context) error {
	gameID, playerID := that.ids()
	if gameID == "" {
		return ErrNoRoom
	}

	endpoint := that.socketURL + "/ws/" + url.PathEscape(gameID) + "/" + url.PathEscape(playerID)
	delay := reconnectMinDelay

	for {
		err := that.listenOnce(ctx, endpoint)
		if ctx.Err() != nil {
			return nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) {
			// the room is gone or the player was never in it;
			// redialing cannot help
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		delay *= 2
		if delay > reconnectMaxDelay {
			delay = reconnectMaxDelay
		}
	}
}

// Poll refreshes the snapshot on a fixed interval until ctx is
// canceled. It is the staleness-bounded fallback for when the push
// channel is unreliable; transient errors are ignored.
func (that *Session) Poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = that.Refresh(ctx)
		}
	}
}

// Updates delivers every snapshot received over the push channel.
// Slow consumers miss intermediate snapshots rather than blocking the
// listener; the latest one is always available from Snapshot.
func (that *Session) Updates() <-chan Snapshot {
	return that.updates
}

// Phase derives the session's phase from the latest snapshot.
func (that *Session) Phase() Phase {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if that.gameID == "" {
		return PhaseNoRoom
	}

	if that.snapshot == nil {
		return PhaseLobby
	}

	switch that.snapshot.State {
	case "waiting_for_ready":
		return PhaseReadyWait
	case "in_progress":
		return PhaseInRound
	case "resolved":
		return PhaseResolved
	default:
		return PhaseLobby
	}
}

// Snapshot returns the most recent room snapshot, or nil before the
// first one arrives.
func (that *Session) Snapshot() *Snapshot {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.snapshot
}

// GameID returns the joined room's id, or empty in PhaseNoRoom.
func (that *Session) GameID() string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.gameID
}

// PlayerID returns this session's player id.
func (that *Session) PlayerID() string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.playerID
}

// Role returns the seat this session holds.
func (that *Session) Role() string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.role
}

// Won reports the result of a resolved round for this session.
func (that *Session) Won() (won, draw bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if that.snapshot == nil || that.snapshot.Winner == "" {
		return false, false
	}

	if that.snapshot.Winner == "draw" {
		return false, true
	}

	return that.snapshot.Winner == that.role, false
}

func (that *Session) listenOnce(ctx context.Context, endpoint string) error {
	conn, resp, err := that.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil && resp.StatusCode >= http.StatusBadRequest {
			return &APIError{Status: resp.StatusCode, Message: resp.Status}
		}
		return fmt.Errorf("failed to dial push channel: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.Close()
	}()

	for {
		var snapshot Snapshot
		if err = conn.ReadJSON(&snapshot); err != nil {
			return fmt.Errorf("push channel closed: %w", err)
		}

		that.storeSnapshot(snapshot)

		select {
		case that.updates <- snapshot:
		default:
		}
	}
}

func (that *Session) ids() (gameID, playerID string) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.gameID, that.playerID
}

func (that *Session) storeSnapshot(snapshot Snapshot) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.snapshot = &snapshot
}

func (that *Session) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, that.apiURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return that.do(req, out)
}

func (that *Session) do(req *http.Request, out any) error {
	resp, err := that.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Error == "" {
			body.Error = resp.Status
		}

		return &APIError{Status: resp.StatusCode, Message: body.Error}
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
