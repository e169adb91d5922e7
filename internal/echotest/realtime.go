package echotest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"echosphere-client/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type userKey struct{}

func withUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

func userFrom(ctx context.Context) models.User {
	user, _ := ctx.Value(userKey{}).(models.User)
	return user
}

// dm threads get their own room namespace so a dm id can never collide
// with a channel id
func dmRoom(dmID string) string {
	return "dm:" + dmID
}

type wsConn struct {
	conn  *websocket.Conn
	send  chan models.Event
	rooms map[string]bool
	user  models.UserStub
}

type pollSession struct {
	events chan models.Event
	rooms  map[string]bool
	user   models.UserStub
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	disabled := s.DisableWebsocket
	s.mutex.Unlock()
	if disabled {
		http.NotFound(w, r)
		return
	}

	user, ok := s.verifyToken(r.URL.Query().Get("token"))
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &wsConn{
		conn:  conn,
		send:  make(chan models.Event, 256),
		rooms: make(map[string]bool),
		user:  stub(user),
	}

	s.mutex.Lock()
	s.conns[c] = struct{}{}
	s.mutex.Unlock()

	go c.writePump()
	s.readPump(c)
}

func (s *Server) readPump(c *wsConn) {
	defer func() {
		s.mutex.Lock()
		delete(s.conns, c)
		s.mutex.Unlock()
		close(c.send)
		c.conn.Close()
	}()

	for {
		var ev models.Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			return
		}
		s.handleIntent(c.rooms, c.user, ev)
	}
}

func (c *wsConn) writePump() {
	for ev := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteJSON(ev); err != nil {
			return
		}
	}
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	user, ok := s.verifyToken(r.URL.Query().Get("token"))
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		writeDetail(w, http.StatusBadRequest, "Missing session")
		return
	}

	session := s.session(sessionID, user)

	events := []models.Event{}
	timeout := time.After(250 * time.Millisecond)
	select {
	case ev := <-session.events:
		events = append(events, ev)
	case <-timeout:
	case <-r.Context().Done():
		return
	}
	for {
		select {
		case ev := <-session.events:
			events = append(events, ev)
			continue
		default:
		}
		break
	}

	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleEmit(w http.ResponseWriter, r *http.Request) {
	user, ok := s.verifyToken(r.URL.Query().Get("token"))
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		writeDetail(w, http.StatusBadRequest, "Missing session")
		return
	}

	var ev models.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid body")
		return
	}

	session := s.session(sessionID, user)
	s.handleIntent(session.rooms, session.user, ev)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) session(id string, user models.User) *pollSession {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		session = &pollSession{
			events: make(chan models.Event, 256),
			rooms:  make(map[string]bool),
			user:   stub(user),
		}
		s.sessions[id] = session
	}
	return session
}

func (s *Server) handleIntent(rooms map[string]bool, from models.UserStub, ev models.Event) {
	var intent models.Intent
	if len(ev.Data) > 0 {
		if err := json.Unmarshal(ev.Data, &intent); err != nil {
			return
		}
	}
	user := from
	if intent.User != nil {
		user = *intent.User
	}
	presence := models.Presence{User: user, ChannelID: intent.ChannelID}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	switch ev.Event {
	case models.JoinChannel:
		rooms[intent.ChannelID] = true
	case models.LeaveChannel:
		delete(rooms, intent.ChannelID)
	case models.JoinDM:
		rooms[dmRoom(intent.DMID)] = true
	case models.TypingStart:
		s.broadcastLocked(intent.ChannelID, mustEvent(models.UserTyping, presence))
	case models.TypingStop:
		s.broadcastLocked(intent.ChannelID, mustEvent(models.UserStoppedTyping, presence))
	case models.VoiceJoin:
		s.broadcastLocked(intent.ChannelID, mustEvent(models.VoiceUserJoined, presence))
	case models.VoiceLeave:
		s.broadcastLocked(intent.ChannelID, mustEvent(models.VoiceUserLeft, presence))
	}
}

// broadcast fans an event out to every connection joined to the room,
// the sender included.
func (s *Server) broadcast(room string, ev models.Event) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.broadcastLocked(room, ev)
}

func (s *Server) broadcastLocked(room string, ev models.Event) {
	for c := range s.conns {
		if c.rooms[room] {
			select {
			case c.send <- ev:
			default:
			}
		}
	}
	for _, session := range s.sessions {
		if session.rooms[room] {
			select {
			case session.events <- ev:
			default:
			}
		}
	}
}

// Push delivers an event to every connected client regardless of room
// membership. Tests use it to inject arbitrary server pushes.
func (s *Server) Push(ev models.Event) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for c := range s.conns {
		select {
		case c.send <- ev:
		default:
		}
	}
	for _, session := range s.sessions {
		select {
		case session.events <- ev:
		default:
		}
	}
}

// ClientCount reports how many websocket connections are live.
func (s *Server) ClientCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.conns)
}

// PushEvent marshals payload and pushes it under the given event name.
func (s *Server) PushEvent(name string, payload any) {
	s.Push(mustEvent(name, payload))
}
