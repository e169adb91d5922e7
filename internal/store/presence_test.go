package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echosphere-client/internal/models"
)

func TestTypingExpiresWithoutStop(t *testing.T) {
	s := New()
	s.SetTypingTTL(50 * time.Millisecond)

	s.SetTyping("c1", models.UserStub{ID: "u1", Username: "nova"}, true)
	require.Len(t, s.TypingUsers("c1"), 1)

	assert.Eventually(t, func() bool {
		return len(s.TypingUsers("c1")) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestTypingStopClearsImmediately(t *testing.T) {
	s := New()
	s.SetTypingTTL(time.Minute)

	s.SetTyping("c1", models.UserStub{ID: "u1"}, true)
	s.SetTyping("c1", models.UserStub{ID: "u1"}, false)

	assert.Empty(t, s.TypingUsers("c1"))
}

// A fresh typing event must re-arm the expiry, not ride out the timer of
// the earlier one.
func TestTypingRestartExtendsExpiry(t *testing.T) {
	s := New()
	s.SetTypingTTL(80 * time.Millisecond)

	user := models.UserStub{ID: "u1"}
	s.SetTyping("c1", user, true)
	time.Sleep(50 * time.Millisecond)
	s.SetTyping("c1", user, true)
	time.Sleep(50 * time.Millisecond)

	// 100ms after the first start but only 50ms after the second
	assert.Len(t, s.TypingUsers("c1"), 1)

	assert.Eventually(t, func() bool {
		return len(s.TypingUsers("c1")) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestTypingStaleTimerDoesNotKillFreshEntry(t *testing.T) {
	s := New()
	s.SetTypingTTL(30 * time.Millisecond)

	user := models.UserStub{ID: "u1"}
	s.SetTyping("c1", user, true)
	s.SetTyping("c1", user, false)
	s.SetTypingTTL(time.Minute)
	s.SetTyping("c1", user, true)

	// wait past the first, cancelled timer's deadline
	time.Sleep(60 * time.Millisecond)
	assert.Len(t, s.TypingUsers("c1"), 1)
}

func TestTypingScopedToChannel(t *testing.T) {
	s := New()

	s.SetTyping("c1", models.UserStub{ID: "u1"}, true)
	s.SetTyping("c2", models.UserStub{ID: "u2"}, true)

	require.Len(t, s.TypingUsers("c1"), 1)
	assert.Equal(t, "u1", s.TypingUsers("c1")[0].ID)
	require.Len(t, s.TypingUsers("c2"), 1)
	assert.Equal(t, "u2", s.TypingUsers("c2")[0].ID)
}

func TestVoiceMembershipHasNoExpiry(t *testing.T) {
	s := New()

	s.SetVoice("v1", models.UserStub{ID: "u1"}, true)
	s.SetVoice("v1", models.UserStub{ID: "u1"}, true)
	require.Len(t, s.VoiceUsers("v1"), 1)

	time.Sleep(50 * time.Millisecond)
	require.Len(t, s.VoiceUsers("v1"), 1)

	s.SetVoice("v1", models.UserStub{ID: "u1"}, false)
	assert.Empty(t, s.VoiceUsers("v1"))
}
