package rest_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"echosphere-client/internal/echotest"
	"echosphere-client/internal/rest"
)

func newClient(t *testing.T) (*echotest.Server, *rest.Client) {
	srv := echotest.NewServer(t)
	return srv, rest.NewClient(srv.URL(), zap.NewNop().Sugar())
}

func TestSignupThenLogin(t *testing.T) {
	_, client := newClient(t)
	ctx := context.Background()

	auth, err := client.Signup(ctx, "nova", "nova@example.com", "Password1")
	require.NoError(t, err)
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, "nova", auth.User.Username)

	auth2, err := client.Login(ctx, "nova@example.com", "Password1")
	require.NoError(t, err)
	assert.Equal(t, auth.User.ID, auth2.User.ID)

	client.SetToken(auth2.Token)
	me, err := client.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth.User.ID, me.ID)
}

func TestLoginBadCredentials(t *testing.T) {
	srv, client := newClient(t)
	srv.CreateUser("nova")
	ctx := context.Background()

	_, err := client.Login(ctx, "nova@example.com", "wrong-password")
	require.Error(t, err)
	assert.ErrorIs(t, err, rest.ErrUnauthorized)

	var apiErr *rest.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
	assert.Equal(t, "Invalid credentials", apiErr.Detail)
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	_, client := newClient(t)

	_, err := client.Servers(context.Background())
	assert.ErrorIs(t, err, rest.ErrUnauthorized)
}

func TestDetailSurfacedOnNotFound(t *testing.T) {
	srv, client := newClient(t)
	token, _ := srv.CreateUser("nova")
	client.SetToken(token)

	_, err := client.EditMessage(context.Background(), "missing", "new content")
	require.Error(t, err)

	var apiErr *rest.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
	assert.Equal(t, "Message not found", apiErr.Detail)
	assert.NotErrorIs(t, err, rest.ErrUnauthorized)
}

func TestProfileUpdate(t *testing.T) {
	srv, client := newClient(t)
	token, _ := srv.CreateUser("nova")
	client.SetToken(token)
	ctx := context.Background()

	updated, err := client.UpdateProfile(ctx, rest.ProfileUpdate{Bio: "hi there", Theme: "midnight"})
	require.NoError(t, err)
	assert.Equal(t, "hi there", updated.Bio)
	assert.Equal(t, "midnight", updated.Theme)
}

func TestSearchMessages(t *testing.T) {
	srv, client := newClient(t)
	token, _ := srv.CreateUser("nova")
	client.SetToken(token)
	ctx := context.Background()

	server, err := client.CreateServer(ctx, "Nebula", "", "")
	require.NoError(t, err)
	channels, err := client.ServerChannels(ctx, server.ID)
	require.NoError(t, err)

	_, err = client.SendMessage(ctx, channels[0].ID, "the quick brown fox", nil)
	require.NoError(t, err)
	_, err = client.SendMessage(ctx, channels[0].ID, "something else", nil)
	require.NoError(t, err)

	matches, err := client.SearchMessages(ctx, "quick BROWN", server.ID)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "the quick brown fox", matches[0].Content)
}

func TestSearchUsers(t *testing.T) {
	srv, client := newClient(t)
	token, _ := srv.CreateUser("nova")
	srv.CreateUser("novella")
	srv.CreateUser("vex")
	client.SetToken(token)

	matches, err := client.SearchUsers(context.Background(), "nov")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestUploadAvatar(t *testing.T) {
	srv, client := newClient(t)
	token, _ := srv.CreateUser("nova")
	client.SetToken(token)
	ctx := context.Background()

	uploaded, err := client.Upload(ctx, rest.UploadAvatars, "me.png", strings.NewReader("not really a png"))
	require.NoError(t, err)
	assert.Equal(t, "me.png", uploaded.Filename)
	assert.Contains(t, uploaded.URL, "me.png")
}

func TestUploadRejectsWrongExtensionLocally(t *testing.T) {
	_, client := newClient(t)

	_, err := client.Upload(context.Background(), rest.UploadAvatars, "malware.exe", strings.NewReader("x"))
	require.Error(t, err)

	// never reached the backend, so no APIError
	var apiErr *rest.APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestReactionEndpointsEscapeEmoji(t *testing.T) {
	srv, client := newClient(t)
	token, user := srv.CreateUser("nova")
	client.SetToken(token)
	ctx := context.Background()

	server, err := client.CreateServer(ctx, "Nebula", "", "")
	require.NoError(t, err)
	channels, err := client.ServerChannels(ctx, server.ID)
	require.NoError(t, err)
	message, err := client.SendMessage(ctx, channels[0].ID, "react", nil)
	require.NoError(t, err)

	require.NoError(t, client.AddReaction(ctx, message.ID, "🎉"))
	messages, err := client.ChannelMessages(ctx, channels[0].ID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, []string{user.ID}, messages[0].Reactions["🎉"])

	require.NoError(t, client.RemoveReaction(ctx, message.ID, "🎉"))
	messages, err = client.ChannelMessages(ctx, channels[0].ID, 0)
	require.NoError(t, err)
	assert.Empty(t, messages[0].Reactions["🎉"])
}
