package client

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"echosphere-client/internal/echotest"
	"echosphere-client/internal/gateway"
	"echosphere-client/internal/models"
	"echosphere-client/internal/rest"
	"echosphere-client/internal/store"
)

type fixture struct {
	srv    *echotest.Server
	rest   *rest.Client
	gate   *gateway.Gateway
	store  *store.Store
	client *Client
	user   models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sugar := zap.NewNop().Sugar()

	srv := echotest.NewServer(t)
	token, user := srv.CreateUser("nova")

	restClient := rest.NewClient(srv.URL(), sugar)
	restClient.SetToken(token)

	gate := gateway.New(srv.URL(), sugar)
	gate.SetReconnectPolicy(3, 20*time.Millisecond, time.Second)
	t.Cleanup(gate.Disconnect)
	gate.Connect(context.Background(), token)
	require.Eventually(t, gate.Connected, 2*time.Second, 10*time.Millisecond)

	st := store.New()
	cl := New(restClient, st, gate, sugar)
	t.Cleanup(cl.Close)
	cl.SetSelf(models.UserStub{ID: user.ID, Username: user.Username})

	return &fixture{srv: srv, rest: restClient, gate: gate, store: st, client: cl, user: user}
}

// openChannel opens the channel and waits until the join intent has been
// processed server side, by bouncing a typing event off the room.
func (f *fixture) openChannel(t *testing.T, channel models.Channel) {
	t.Helper()
	require.NoError(t, f.client.OpenChannel(context.Background(), channel))

	probe := models.UserStub{ID: "probe", Username: "probe"}
	f.gate.SendIntent(models.TypingStart, models.Intent{ChannelID: channel.ID, User: &probe})
	require.Eventually(t, func() bool {
		for _, u := range f.store.TypingUsers(channel.ID) {
			if u.ID == "probe" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "join intent never took effect")
	f.store.SetTyping(channel.ID, probe, false)
}

// textChannel creates a server and returns its first text channel without
// opening it, so no join intent is announced. Tests that want to be in
// the room call openChannel on top.
func (f *fixture) textChannel(t *testing.T) models.Channel {
	t.Helper()
	ctx := context.Background()
	server, err := f.client.CreateServer(ctx, "Nebula", "", "test server")
	require.NoError(t, err)

	channels, err := f.rest.ServerChannels(ctx, server.ID)
	require.NoError(t, err)
	for _, channel := range channels {
		if channel.ChannelType == models.ChannelText {
			return channel
		}
	}
	t.Fatal("server has no text channel")
	return models.Channel{}
}

func TestOpenServerSelectsFirstTextChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	server, err := f.client.CreateServer(ctx, "Nebula", "", "test server")
	require.NoError(t, err)
	require.NoError(t, f.client.OpenServer(ctx, server))

	channel := f.store.CurrentChannel()
	require.NotNil(t, channel)
	assert.Equal(t, models.ChannelText, channel.ChannelType)
	assert.Equal(t, "general", channel.Name)
	assert.NotEmpty(t, f.store.Channels())
	require.Len(t, f.store.Members(), 1)
	assert.Equal(t, f.user.ID, f.store.Members()[0].ID)
}

func TestSendMessageAppearsAfterConfirmation(t *testing.T) {
	f := newFixture(t)
	channel := f.textChannel(t)
	ctx := context.Background()

	sent, err := f.client.SendMessage(ctx, channel.ID, "msg1", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, sent.ID)
	assert.Equal(t, f.user.ID, sent.AuthorID)

	messages := f.store.Messages()
	require.NotEmpty(t, messages)
	assert.Equal(t, "msg1", messages[0].Content)
}

// A client that is joined to the channel it posts in receives the pushed
// echo of its own message on top of the REST-confirmed copy, and both are
// kept. Known duplication; pinned here so any change to it is deliberate.
func TestSelfEchoDuplicatesOwnMessage(t *testing.T) {
	f := newFixture(t)
	channel := f.textChannel(t)
	f.openChannel(t, channel)
	ctx := context.Background()

	sent, err := f.client.SendMessage(ctx, channel.ID, "msg1", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		count := 0
		for _, m := range f.store.Messages() {
			if m.ID == sent.ID {
				count++
			}
		}
		return count == 2
	}, 2*time.Second, 10*time.Millisecond, "expected the pushed echo to duplicate the confirmed copy")
}

func TestPushedMessageFromOthersAppends(t *testing.T) {
	f := newFixture(t)
	channel := f.textChannel(t)
	f.openChannel(t, channel)

	f.srv.PushEvent(models.NewMessage, models.Message{
		ID:        "remote-1",
		ChannelID: channel.ID,
		AuthorID:  "u2",
		Author:    models.UserStub{ID: "u2", Username: "vex"},
		Content:   "hello from vex",
	})

	require.Eventually(t, func() bool {
		for _, m := range f.store.Messages() {
			if m.ID == "remote-1" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEditAndDeleteMessage(t *testing.T) {
	f := newFixture(t)
	channel := f.textChannel(t)
	ctx := context.Background()

	first, err := f.client.SendMessage(ctx, channel.ID, "one", nil)
	require.NoError(t, err)
	second, err := f.client.SendMessage(ctx, channel.ID, "two", nil)
	require.NoError(t, err)

	require.NoError(t, f.client.EditMessage(ctx, first.ID, "one, edited"))
	messages := f.store.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "one, edited", messages[0].Content)
	assert.NotNil(t, messages[0].EditedAt)
	assert.Equal(t, "two", messages[1].Content)

	require.NoError(t, f.client.DeleteMessage(ctx, second.ID))
	messages = f.store.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, first.ID, messages[0].ID)
}

func TestToggleReactionRoundTrip(t *testing.T) {
	f := newFixture(t)
	channel := f.textChannel(t)
	ctx := context.Background()

	sent, err := f.client.SendMessage(ctx, channel.ID, "react to me", nil)
	require.NoError(t, err)

	require.NoError(t, f.client.ToggleReaction(ctx, sent.ID, "🔥"))
	assert.True(t, f.store.HasReaction(sent.ID, "🔥", f.user.ID))

	// a second toggle of the same emoji removes it again
	require.NoError(t, f.client.ToggleReaction(ctx, sent.ID, "🔥"))
	assert.False(t, f.store.HasReaction(sent.ID, "🔥", f.user.ID))

	// and the server agrees both times
	require.NoError(t, f.client.FetchMessages(ctx, channel.ID))
	assert.False(t, f.store.HasReaction(sent.ID, "🔥", f.user.ID))
}

func TestTypingPushExpires(t *testing.T) {
	f := newFixture(t)
	channel := f.textChannel(t)
	f.store.SetTypingTTL(80 * time.Millisecond)
	f.openChannel(t, channel)

	f.srv.PushEvent(models.UserTyping, models.Presence{
		User:      models.UserStub{ID: "u2", Username: "vex"},
		ChannelID: channel.ID,
	})

	require.Eventually(t, func() bool {
		return len(f.store.TypingUsers(channel.ID)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// no stop event arrives; the indicator must fall out on its own
	require.Eventually(t, func() bool {
		return len(f.store.TypingUsers(channel.ID)) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestVoicePresenceFollowsEvents(t *testing.T) {
	f := newFixture(t)
	channel := f.textChannel(t)
	f.openChannel(t, channel)

	vex := models.UserStub{ID: "u2", Username: "vex"}
	f.srv.PushEvent(models.VoiceUserJoined, models.Presence{User: vex, ChannelID: "voice-1"})
	require.Eventually(t, func() bool {
		return len(f.store.VoiceUsers("voice-1")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	f.srv.PushEvent(models.VoiceUserLeft, models.Presence{User: vex, ChannelID: "voice-1"})
	require.Eventually(t, func() bool {
		return len(f.store.VoiceUsers("voice-1")) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDMFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, other := f.srv.CreateUser("vex")

	dm, err := f.client.CreateDM(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, f.store.DMs(), 1)

	require.NoError(t, f.client.OpenDM(ctx, dm))
	assert.Nil(t, f.store.CurrentChannel())
	require.NotNil(t, f.store.CurrentDM())

	sent, err := f.client.SendDMMessage(ctx, dm.ID, "hey vex")
	require.NoError(t, err)
	assert.Equal(t, dm.ID, sent.DMID)
	require.NotEmpty(t, f.store.DMMessages())
	assert.Equal(t, "hey vex", f.store.DMMessages()[0].Content)
}

func TestJoinServerByInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ownerToken, _ := f.srv.CreateUser("owner")
	ownerRest := rest.NewClient(f.srv.URL(), zap.NewNop().Sugar())
	ownerRest.SetToken(ownerToken)
	server, err := ownerRest.CreateServer(ctx, "Orbit", "", "")
	require.NoError(t, err)

	require.NoError(t, f.client.JoinServer(ctx, server.InviteCode))
	servers := f.store.Servers()
	require.Len(t, servers, 1)
	assert.Equal(t, server.ID, servers[0].ID)

	// joining twice is rejected by the backend
	err = f.client.JoinServer(ctx, server.InviteCode)
	require.Error(t, err)
}

// delayedTransport holds back the response of the first matching request
// until released, so a test can force two fetches to resolve out of start
// order.
type delayedTransport struct {
	base    http.RoundTripper
	match   string
	hold    chan struct{}
	matched chan struct{}
	armed   bool
}

func (d *delayedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if d.armed && req.URL.Path == d.match {
		d.armed = false
		// let the server answer first, then withhold the response so the
		// snapshot inside it stays from this moment
		resp, err := d.base.RoundTrip(req)
		close(d.matched)
		<-d.hold
		return resp, err
	}
	return d.base.RoundTrip(req)
}

// Two in-flight fetches of the same collection have no ordering token:
// whichever response resolves last owns the store, even when it was the
// one requested first.
func TestFetchRaceLastResolvedWins(t *testing.T) {
	f := newFixture(t)
	channel := f.textChannel(t)
	ctx := context.Background()

	_, err := f.client.SendMessage(ctx, channel.ID, "early", nil)
	require.NoError(t, err)

	dt := &delayedTransport{
		base:    http.DefaultTransport,
		match:   "/api/channels/" + channel.ID + "/messages",
		hold:    make(chan struct{}),
		matched: make(chan struct{}),
		armed:   true,
	}
	f.rest.SetHTTPClient(&http.Client{Transport: dt})

	// fetch A starts first and will resolve last
	fetchA := make(chan error, 1)
	go func() { fetchA <- f.client.FetchMessages(ctx, channel.ID) }()
	<-dt.matched

	// the channel grows a second message, fetch B sees it
	_, err = f.client.SendMessage(ctx, channel.ID, "late", nil)
	require.NoError(t, err)
	require.NoError(t, f.client.FetchMessages(ctx, channel.ID))
	require.Len(t, f.store.Messages(), 2)

	// fetch A resolves with its stale one-message snapshot and overwrites
	close(dt.hold)
	require.NoError(t, <-fetchA)
	messages := f.store.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "early", messages[0].Content)
}

func TestUnknownEventIgnored(t *testing.T) {
	f := newFixture(t)
	f.srv.PushEvent("future_event", map[string]string{"whatever": "x"})
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, f.store.Messages())
}
