package store

import (
	"slices"
	"sync"
	"time"

	"echosphere-client/internal/models"
)

// DefaultTypingTTL bounds how long a typing indicator survives without an
// explicit stop event.
const DefaultTypingTTL = 3 * time.Second

// Store is the single in-memory view of everything the client renders.
// Collections are scoped to whatever is currently selected and replaced
// wholesale on fetch; realtime pushes and confirmed REST mutations land in
// the same collections. Only reconciler entry points mutate it, renderers
// read copies.
type Store struct {
	mutex sync.RWMutex

	servers    []models.Server
	channels   []models.Channel
	messages   []models.Message
	members    []models.User
	dms        []models.DMThread
	dmMessages []models.DMMessage

	currentServer  *models.Server
	currentChannel *models.Channel
	currentDM      *models.DMThread

	typingTTL    time.Duration
	typing       map[string][]models.UserStub
	voice        map[string][]models.UserStub
	typingTimers map[string]*time.Timer
}

func New() *Store {
	return &Store{
		typingTTL:    DefaultTypingTTL,
		typing:       make(map[string][]models.UserStub),
		voice:        make(map[string][]models.UserStub),
		typingTimers: make(map[string]*time.Timer),
	}
}

// SetTypingTTL overrides the typing expiry, used by tests to avoid real
// three second waits.
func (s *Store) SetTypingTTL(ttl time.Duration) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.typingTTL = ttl
}

// Reset drops all local state, including pending presence timers. Called
// on logout.
func (s *Store) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.servers = nil
	s.channels = nil
	s.messages = nil
	s.members = nil
	s.dms = nil
	s.dmMessages = nil
	s.currentServer = nil
	s.currentChannel = nil
	s.currentDM = nil

	for key, timer := range s.typingTimers {
		timer.Stop()
		delete(s.typingTimers, key)
	}
	s.typing = make(map[string][]models.UserStub)
	s.voice = make(map[string][]models.UserStub)
}

func (s *Store) SetServers(servers []models.Server) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.servers = servers
}

func (s *Store) Servers() []models.Server {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return slices.Clone(s.servers)
}

func (s *Store) AddServer(server models.Server) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.servers = append(s.servers, server)
}

func (s *Store) SetChannels(channels []models.Channel) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.channels = channels
}

func (s *Store) Channels() []models.Channel {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return slices.Clone(s.channels)
}

func (s *Store) AddChannel(channel models.Channel) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.channels = append(s.channels, channel)
}

func (s *Store) SetMessages(messages []models.Message) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.messages = messages
}

func (s *Store) Messages() []models.Message {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return slices.Clone(s.messages)
}

// AppendMessage adds unconditionally. Pushed echoes of a self-sent message
// are NOT de-duplicated against the REST-confirmed copy; the backend is
// expected to suppress self-echo.
func (s *Store) AppendMessage(message models.Message) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.messages = append(s.messages, message)
}

// ReplaceMessage swaps the entry with the same id, leaving the collection
// untouched when the id is unknown.
func (s *Store) ReplaceMessage(message models.Message) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i := range s.messages {
		if s.messages[i].ID == message.ID {
			s.messages[i] = message
			return
		}
	}
}

func (s *Store) RemoveMessage(messageID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.messages = slices.DeleteFunc(s.messages, func(m models.Message) bool {
		return m.ID == messageID
	})
}

// HasReaction reports whether userID already reacted with emoji on the
// message. This local membership check drives the add-or-remove toggle
// choice; it can drift from server state under concurrent remote toggles.
func (s *Store) HasReaction(messageID string, emoji string, userID string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for i := range s.messages {
		if s.messages[i].ID == messageID {
			return slices.Contains(s.messages[i].Reactions[emoji], userID)
		}
	}
	return false
}

// SetReaction inserts or removes userID in the emoji's user set on the
// message, keeping the set free of duplicates. Empty sets are pruned.
func (s *Store) SetReaction(messageID string, emoji string, userID string, added bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i := range s.messages {
		if s.messages[i].ID != messageID {
			continue
		}

		message := &s.messages[i]
		if added {
			if message.Reactions == nil {
				message.Reactions = make(map[string][]string)
			}
			if !slices.Contains(message.Reactions[emoji], userID) {
				message.Reactions[emoji] = append(message.Reactions[emoji], userID)
			}
		} else {
			if message.Reactions == nil {
				return
			}
			message.Reactions[emoji] = slices.DeleteFunc(message.Reactions[emoji], func(id string) bool {
				return id == userID
			})
			if len(message.Reactions[emoji]) == 0 {
				delete(message.Reactions, emoji)
			}
		}
		return
	}
}

func (s *Store) SetMembers(members []models.User) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.members = members
}

func (s *Store) Members() []models.User {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return slices.Clone(s.members)
}

func (s *Store) SetDMs(dms []models.DMThread) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.dms = dms
}

func (s *Store) DMs() []models.DMThread {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return slices.Clone(s.dms)
}

func (s *Store) SetDMMessages(messages []models.DMMessage) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.dmMessages = messages
}

func (s *Store) DMMessages() []models.DMMessage {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return slices.Clone(s.dmMessages)
}

func (s *Store) AppendDMMessage(message models.DMMessage) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.dmMessages = append(s.dmMessages, message)
}

func (s *Store) SetCurrentServer(server *models.Server) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.currentServer = server
}

func (s *Store) CurrentServer() *models.Server {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.currentServer
}

// SetCurrentChannel selects a channel; selecting one clears any DM
// selection so at most one conversation is current.
func (s *Store) SetCurrentChannel(channel *models.Channel) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.currentChannel = channel
	if channel != nil {
		s.currentDM = nil
	}
}

func (s *Store) CurrentChannel() *models.Channel {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.currentChannel
}

func (s *Store) SetCurrentDM(dm *models.DMThread) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.currentDM = dm
	if dm != nil {
		s.currentChannel = nil
	}
}

func (s *Store) CurrentDM() *models.DMThread {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.currentDM
}
