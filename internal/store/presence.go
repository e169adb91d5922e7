package store

import (
	"slices"
	"time"

	"echosphere-client/internal/models"
)

func presenceKey(channelID string, userID string) string {
	return channelID + "\x00" + userID
}

// SetTyping inserts or removes a typing indicator for the user in the
// channel. Every insertion arms a fresh expiry timer so an entry never
// outlives the TTL even when no stop event arrives; an explicit stop
// cancels the timer instead of leaking it.
func (s *Store) SetTyping(channelID string, user models.UserStub, typing bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	key := presenceKey(channelID, user.ID)
	if timer, ok := s.typingTimers[key]; ok {
		timer.Stop()
		delete(s.typingTimers, key)
	}

	if typing {
		if !containsUser(s.typing[channelID], user.ID) {
			s.typing[channelID] = append(s.typing[channelID], user)
		}
		var timer *time.Timer
		timer = time.AfterFunc(s.typingTTL, func() {
			s.mutex.Lock()
			defer s.mutex.Unlock()
			// a stop or a newer start may have superseded this timer
			if s.typingTimers[key] != timer {
				return
			}
			delete(s.typingTimers, key)
			s.typing[channelID] = removeUser(s.typing[channelID], user.ID)
			if len(s.typing[channelID]) == 0 {
				delete(s.typing, channelID)
			}
		})
		s.typingTimers[key] = timer
		return
	}

	s.typing[channelID] = removeUser(s.typing[channelID], user.ID)
	if len(s.typing[channelID]) == 0 {
		delete(s.typing, channelID)
	}
}

func (s *Store) TypingUsers(channelID string) []models.UserStub {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return slices.Clone(s.typing[channelID])
}

// SetVoice tracks voice channel membership; entries live until the
// matching leave event, no expiry.
func (s *Store) SetVoice(channelID string, user models.UserStub, joined bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if joined {
		if !containsUser(s.voice[channelID], user.ID) {
			s.voice[channelID] = append(s.voice[channelID], user)
		}
		return
	}

	s.voice[channelID] = removeUser(s.voice[channelID], user.ID)
	if len(s.voice[channelID]) == 0 {
		delete(s.voice, channelID)
	}
}

func (s *Store) VoiceUsers(channelID string) []models.UserStub {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return slices.Clone(s.voice[channelID])
}

func containsUser(users []models.UserStub, userID string) bool {
	return slices.ContainsFunc(users, func(u models.UserStub) bool {
		return u.ID == userID
	})
}

func removeUser(users []models.UserStub, userID string) []models.UserStub {
	return slices.DeleteFunc(users, func(u models.UserStub) bool {
		return u.ID == userID
	})
}
