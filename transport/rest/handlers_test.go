package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gesturegames/rps-backend/internal/entity"
	"github.com/gesturegames/rps-backend/internal/repository"
	"github.com/gesturegames/rps-backend/internal/usecase"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	registry := usecase.NewMatchRegistry(logger, repository.NewMemoryRoomRepository())

	srv := httptest.NewServer(NewHandlers(logger, registry).Router())
	t.Cleanup(srv.Close)

	return srv
}

func postJSON(t *testing.T, url string, body map[string]string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))

	return resp, decoded
}

func field(t *testing.T, body map[string]json.RawMessage, key string) string {
	t.Helper()

	var value string
	require.NoError(t, json.Unmarshal(body[key], &value))

	return value
}

// createdRoom runs the create+join handshake over the wire and
// returns the ids the two clients would hold.
func createdRoom(t *testing.T, srv *httptest.Server) (gameID, playerA, playerB string) {
	t.Helper()

	resp, body := postJSON(t, srv.URL+"/rooms", map[string]string{"player_name": "Alice"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	gameID = field(t, body, "game_id")
	playerA = field(t, body, "player_id")
	require.Equal(t, "A", field(t, body, "role"))

	resp, body = postJSON(t, srv.URL+"/rooms/"+gameID+"/join", map[string]string{"player_name": "Bob"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	playerB = field(t, body, "player_id")
	require.Equal(t, "B", field(t, body, "role"))

	return gameID, playerA, playerB
}

func TestHandlers_Ping(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandlers_CreateAndJoin(t *testing.T) {
	srv := newTestServer(t)

	// When: a room is created and joined over the wire
	gameID, playerA, playerB := createdRoom(t, srv)

	// Then: the two players hold distinct ids
	require.NotEmpty(t, gameID)
	require.NotEqual(t, playerA, playerB)

	// When: a third player tries the same room
	resp, body := postJSON(t, srv.URL+"/rooms/"+gameID+"/join", map[string]string{"player_name": "Carol"})

	// Then: the join is rejected as a conflict with an error body
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.NotEmpty(t, field(t, body, "error"))
}

func TestHandlers_JoinUnknownRoom(t *testing.T) {
	srv := newTestServer(t)

	// When: joining a room nobody created
	resp, body := postJSON(t, srv.URL+"/rooms/NOSUCH/join", map[string]string{"player_name": "Bob"})

	// Then: the gateway answers not-found, never a silent create
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, field(t, body, "error"))
}

func TestHandlers_FullRound(t *testing.T) {
	srv := newTestServer(t)
	gameID, playerA, playerB := createdRoom(t, srv)

	// When: both players ready up
	resp, _ := postJSON(t, srv.URL+"/rooms/"+gameID+"/ready", map[string]string{"player_id": playerA})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body := postJSON(t, srv.URL+"/rooms/"+gameID+"/ready", map[string]string{"player_id": playerB})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Then: the ready response carries the in-progress snapshot
	require.Equal(t, entity.StateInProgress, field(t, body, "round_state"))

	// When: rock meets scissors
	resp, _ = postJSON(t, srv.URL+"/rooms/"+gameID+"/move", map[string]string{"player_id": playerA, "move": "rock"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = postJSON(t, srv.URL+"/rooms/"+gameID+"/move", map[string]string{"player_id": playerB, "move": "scissors"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Then: the submit response announces the winner
	require.Equal(t, entity.StateResolved, field(t, body, "round_state"))
	require.Equal(t, "A", field(t, body, "winner"))

	// Then: a poll returns the same resolved snapshot
	getResp, err := http.Get(srv.URL + "/rooms/" + gameID)
	require.NoError(t, err)
	defer getResp.Body.Close()

	var polled map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&polled))
	require.Equal(t, "A", field(t, polled, "winner"))

	// When: the room resets for a rematch
	resp, body = postJSON(t, srv.URL+"/rooms/"+gameID+"/reset", map[string]string{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, entity.StateWaitingForReady, field(t, body, "round_state"))
	_, hasWinner := body["winner"]
	assert.False(t, hasWinner)
}

func TestHandlers_MoveErrors(t *testing.T) {
	srv := newTestServer(t)
	gameID, playerA, playerB := createdRoom(t, srv)

	t.Run("move before ready is a conflict", func(t *testing.T) {
		resp, _ := postJSON(t, srv.URL+"/rooms/"+gameID+"/move", map[string]string{"player_id": playerA, "move": "rock"})

		require.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("unrecognized move is a bad request", func(t *testing.T) {
		for _, p := range []string{playerA, playerB} {
			_, _ = postJSON(t, srv.URL+"/rooms/"+gameID+"/ready", map[string]string{"player_id": p})
		}

		resp, _ := postJSON(t, srv.URL+"/rooms/"+gameID+"/move", map[string]string{"player_id": playerA, "move": "none"})

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown player is not found", func(t *testing.T) {
		resp, _ := postJSON(t, srv.URL+"/rooms/"+gameID+"/move", map[string]string{"player_id": "ghost", "move": "rock"})

		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestHandlers_GetStateUnknownRoom(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/rooms/NOSUCH")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandlers_MalformedBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/rooms", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlers_SnapshotMasksMoves(t *testing.T) {
	srv := newTestServer(t)
	gameID, playerA, playerB := createdRoom(t, srv)

	for _, p := range []string{playerA, playerB} {
		_, _ = postJSON(t, srv.URL+"/rooms/"+gameID+"/ready", map[string]string{"player_id": p})
	}

	// When: only one move is in
	resp, body := postJSON(t, srv.URL+"/rooms/"+gameID+"/move", map[string]string{"player_id": playerA, "move": "paper"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Then: the snapshot flags the move without revealing it
	var players map[string]struct {
		Moved bool   `json:"moved"`
		Move  string `json:"move"`
	}
	require.NoError(t, json.Unmarshal(body["players"], &players))
	assert.True(t, players["A"].Moved)
	assert.Empty(t, players["A"].Move, fmt.Sprintf("move leaked: %+v", players))
}
