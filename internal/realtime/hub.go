package realtime

import (
	"sync"

	"github.com/gatherup/backend/pkg/logger"
	"github.com/google/uuid"
)

// Event is the wire envelope for every socket message, both directions.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Conn is the transport a session writes to. The websocket endpoint satisfies
// it; tests plug in fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Session is one connected client. Outbound events go through a buffered
// queue drained by a single writer goroutine, so broadcasters never block on
// a slow peer.
type Session struct {
	ID     string
	UserID uint

	conn Conn
	send chan Event

	closeOnce sync.Once
	closed    chan struct{}
}

func NewSession(userID uint, conn Conn, bufferSize int) *Session {
	if bufferSize <= 0 {
		bufferSize = 32
	}
	s := &Session{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   conn,
		send:   make(chan Event, bufferSize),
		closed: make(chan struct{}),
	}
	go s.writeLoop()
	return s
}

func (s *Session) writeLoop() {
	defer func() { _ = s.conn.Close() }()

	for {
		select {
		case event := <-s.send:
			if err := s.conn.WriteJSON(event); err != nil {
				logger.Warn("socket_write_failed", map[string]interface{}{
					"session": s.ID,
					"event":   event.Event,
					"error":   err.Error(),
				})
				s.Close()
				return
			}
		case <-s.closed:
			// Flush whatever was queued before the close so farewell events
			// like groupDeleted still reach the peer.
			for {
				select {
				case event := <-s.send:
					if err := s.conn.WriteJSON(event); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

// Send queues an event for the session. Reports false when the queue is full
// or the session is closed; callers treat that as a dead peer.
func (s *Session) Send(event Event) bool {
	select {
	case <-s.closed:
		return false
	default:
	}

	select {
	case s.send <- event:
		return true
	default:
		return false
	}
}

// Close signals the writer to flush and shut the transport down. Safe to call
// more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
}

// Hub owns the room registry: which sessions are attached to which group. All
// fan-out goes through here.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*Session]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[uint]map[*Session]struct{})}
}

func (h *Hub) Join(groupID uint, session *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[groupID]
	if !ok {
		room = make(map[*Session]struct{})
		h.rooms[groupID] = room
	}
	room[session] = struct{}{}
}

func (h *Hub) Leave(groupID uint, session *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(groupID, session)
}

func (h *Hub) leaveLocked(groupID uint, session *Session) {
	if room, ok := h.rooms[groupID]; ok {
		delete(room, session)
		if len(room) == 0 {
			delete(h.rooms, groupID)
		}
	}
}

// Broadcast fans an event out to every session in the room. Sessions whose
// queue is full are detached and closed rather than blocked on.
func (h *Hub) Broadcast(groupID uint, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[groupID]
	if !ok {
		return
	}

	for session := range room {
		if !session.Send(event) {
			logger.Warn("socket_session_dropped", map[string]interface{}{
				"session": session.ID,
				"group":   groupID,
			})
			h.leaveLocked(groupID, session)
			session.Close()
		}
	}
}

// CloseRoom detaches and closes every session in the room. Used after a group
// is deleted; the final event must already have been broadcast.
func (h *Hub) CloseRoom(groupID uint) {
	h.mu.Lock()
	room := h.rooms[groupID]
	delete(h.rooms, groupID)
	h.mu.Unlock()

	for session := range room {
		session.Close()
	}
}

// Rooms returns the group ids a session is currently attached to.
func (h *Hub) Rooms(session *Session) []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var groupIDs []uint
	for groupID, room := range h.rooms {
		if _, ok := room[session]; ok {
			groupIDs = append(groupIDs, groupID)
		}
	}
	return groupIDs
}

// Detach removes the session from every room, returning the rooms it was in.
func (h *Hub) Detach(session *Session) []uint {
	h.mu.Lock()
	defer h.mu.Unlock()

	var groupIDs []uint
	for groupID, room := range h.rooms {
		if _, ok := room[session]; ok {
			groupIDs = append(groupIDs, groupID)
			h.leaveLocked(groupID, session)
		}
	}
	return groupIDs
}

// RoomSize reports how many sessions are attached to the group room.
func (h *Hub) RoomSize(groupID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[groupID])
}
