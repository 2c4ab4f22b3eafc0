package websocket

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gesturegames/rps-backend/internal/entity"
)

const (
	writeWait = 10 * time.Second

	// sendQueueSize bounds how far behind a subscriber may fall
	// before it is dropped.
	sendQueueSize = 8
)

var (
	errSubscriberGone = errors.New("subscriber is no longer registered")
	errSendQueueFull  = errors.New("subscriber send queue is full")
)

// Subscriber binds one live socket to a (game, player) pair. A player
// may hold several subscribers at once, e.g. after a tab refresh; all
// of them receive broadcasts until they stall or their writes fail.
type Subscriber struct {
	gameID   string
	playerID string

	conn *websocket.Conn
	send chan *entity.Snapshot
	once sync.Once
}

// close releases the socket and the send queue exactly once.
func (that *Subscriber) close() {
	that.once.Do(func() {
		close(that.send)
		_ = that.conn.Close()
	})
}

// Hub tracks which sockets are subscribed to which room and fans
// committed snapshots out to them.
type Hub struct {
	logger *slog.Logger

	mu    sync.RWMutex
	rooms map[string]map[*Subscriber]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With("component", "hub"),
		rooms:  make(map[string]map[*Subscriber]struct{}),
	}
}

// Subscribe registers a socket for a room's broadcasts. The caller is
// responsible for starting writePump on the returned subscriber;
// nothing queued is written to the socket until it runs.
func (that *Hub) Subscribe(gameID, playerID string, conn *websocket.Conn) *Subscriber {
	sub := &Subscriber{
		gameID:   gameID,
		playerID: playerID,
		conn:     conn,
		send:     make(chan *entity.Snapshot, sendQueueSize),
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.rooms[gameID]; !ok {
		that.rooms[gameID] = make(map[*Subscriber]struct{})
	}
	that.rooms[gameID][sub] = struct{}{}

	return sub
}

// Unsubscribe drops the socket from the room. Room state is untouched;
// only the push channel goes away.
func (that *Hub) Unsubscribe(sub *Subscriber) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.dropLocked(sub)
}

// BroadcastRoom queues the snapshot for every socket subscribed to
// the room. Queueing never blocks: a subscriber whose queue is full
// is dropped, so one stalled socket cannot delay the mutation that
// produced the snapshot or starve the other subscribers.
func (that *Hub) BroadcastRoom(gameID string, snapshot *entity.Snapshot) {
	var stalled []*Subscriber

	that.mu.RLock()
	for sub := range that.rooms[gameID] {
		select {
		case sub.send <- snapshot:
		default:
			stalled = append(stalled, sub)
		}
	}
	that.mu.RUnlock()

	for _, sub := range stalled {
		that.logger.Info("dropping stalled subscriber", "gameID", gameID, "playerID", sub.playerID)
		that.Unsubscribe(sub)
	}
}

// Send queues one snapshot for one subscriber.
func (that *Hub) Send(sub *Subscriber, snapshot *entity.Snapshot) error {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if _, ok := that.rooms[sub.gameID][sub]; !ok {
		return errSubscriberGone
	}

	select {
	case sub.send <- snapshot:
		return nil
	default:
		return errSendQueueFull
	}
}

// SubscriberCount reports how many sockets a room currently has.
func (that *Hub) SubscriberCount(gameID string) int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms[gameID])
}

// writePump drains the subscriber's queue onto its socket. Every
// subscriber gets its own pump, so a slow socket only ever delays
// itself; the first failed write unsubscribes it.
func (that *Hub) writePump(sub *Subscriber) {
	defer that.Unsubscribe(sub)

	for snapshot := range sub.send {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))

		if err := sub.conn.WriteJSON(snapshot); err != nil {
			return
		}
	}
}

func (that *Hub) dropLocked(sub *Subscriber) {
	subs, ok := that.rooms[sub.gameID]
	if !ok {
		return
	}

	if _, ok = subs[sub]; !ok {
		return
	}

	delete(subs, sub)
	if len(subs) == 0 {
		delete(that.rooms, sub.gameID)
	}

	sub.close()
}
