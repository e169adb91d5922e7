package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echosphere-client/internal/models"
)

func message(id string, content string) models.Message {
	return models.Message{ID: id, ChannelID: "c1", AuthorID: "u1", Content: content}
}

func TestReplaceMessageTouchesOnlyMatchingID(t *testing.T) {
	s := New()
	s.SetMessages([]models.Message{message("m1", "one"), message("m2", "two"), message("m3", "three")})

	edited := message("m2", "two, edited")
	s.ReplaceMessage(edited)

	got := s.Messages()
	require.Len(t, got, 3)
	assert.Equal(t, "one", got[0].Content)
	assert.Equal(t, "two, edited", got[1].Content)
	assert.Equal(t, "three", got[2].Content)
}

func TestReplaceMessageUnknownIDIsNoop(t *testing.T) {
	s := New()
	s.SetMessages([]models.Message{message("m1", "one")})

	s.ReplaceMessage(message("missing", "x"))

	got := s.Messages()
	require.Len(t, got, 1)
	assert.Equal(t, "one", got[0].Content)
}

func TestRemoveMessageRemovesOnlyMatchingID(t *testing.T) {
	s := New()
	s.SetMessages([]models.Message{message("m1", "one"), message("m2", "two"), message("m3", "three")})

	s.RemoveMessage("m2")

	got := s.Messages()
	require.Len(t, got, 2)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, "m3", got[1].ID)
}

// Pushed echoes of a self-sent message are appended as-is; the store does
// not de-duplicate on id. This pins the current behavior so a change to it
// is a conscious one.
func TestAppendMessageDoesNotDeduplicate(t *testing.T) {
	s := New()
	s.AppendMessage(message("m1", "hello"))
	s.AppendMessage(message("m1", "hello"))

	assert.Len(t, s.Messages(), 2)
}

func TestReactionSetStaysUnique(t *testing.T) {
	s := New()
	s.SetMessages([]models.Message{message("m1", "hi")})

	s.SetReaction("m1", "🔥", "u1", true)
	s.SetReaction("m1", "🔥", "u1", true)
	s.SetReaction("m1", "🔥", "u2", true)

	got := s.Messages()[0].Reactions
	assert.Equal(t, []string{"u1", "u2"}, got["🔥"])
}

func TestReactionRemovePrunesEmptySet(t *testing.T) {
	s := New()
	s.SetMessages([]models.Message{message("m1", "hi")})

	s.SetReaction("m1", "🔥", "u1", true)
	require.True(t, s.HasReaction("m1", "🔥", "u1"))

	s.SetReaction("m1", "🔥", "u1", false)
	assert.False(t, s.HasReaction("m1", "🔥", "u1"))
	assert.NotContains(t, s.Messages()[0].Reactions, "🔥")
}

func TestHasReactionUnknownMessage(t *testing.T) {
	s := New()
	assert.False(t, s.HasReaction("missing", "🔥", "u1"))
}

func TestReactionRemoveOnMessageWithoutReactions(t *testing.T) {
	s := New()
	s.SetMessages([]models.Message{message("m1", "one")})

	s.SetReaction("m1", "🔥", "u1", false)

	assert.Nil(t, s.Messages()[0].Reactions)
}

// Fetches replace collections wholesale, so with two racing fetches the
// one resolving last owns the collection.
func TestSetMessagesLastWriteWins(t *testing.T) {
	s := New()
	s.SetMessages([]models.Message{message("m1", "fresh")})
	s.SetMessages([]models.Message{})

	assert.Empty(t, s.Messages())
}

func TestAtMostOneConversationSelected(t *testing.T) {
	s := New()

	s.SetCurrentChannel(&models.Channel{ID: "c1"})
	s.SetCurrentDM(&models.DMThread{ID: "d1"})
	assert.Nil(t, s.CurrentChannel())
	require.NotNil(t, s.CurrentDM())

	s.SetCurrentChannel(&models.Channel{ID: "c2"})
	assert.Nil(t, s.CurrentDM())
	require.NotNil(t, s.CurrentChannel())
	assert.Equal(t, "c2", s.CurrentChannel().ID)
}

func TestResetDropsEverything(t *testing.T) {
	s := New()
	s.SetServers([]models.Server{{ID: "s1"}})
	s.SetMessages([]models.Message{message("m1", "hi")})
	s.SetCurrentChannel(&models.Channel{ID: "c1"})
	s.SetTyping("c1", models.UserStub{ID: "u1"}, true)
	s.SetVoice("c1", models.UserStub{ID: "u2"}, true)

	s.Reset()

	assert.Empty(t, s.Servers())
	assert.Empty(t, s.Messages())
	assert.Nil(t, s.CurrentChannel())
	assert.Empty(t, s.TypingUsers("c1"))
	assert.Empty(t, s.VoiceUsers("c1"))
}

func TestAccessorsReturnCopies(t *testing.T) {
	s := New()
	s.SetMessages([]models.Message{message("m1", "hi")})

	got := s.Messages()
	got[0].Content = "mutated"

	assert.Equal(t, "hi", s.Messages()[0].Content)
}
