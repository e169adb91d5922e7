package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"echosphere-client/internal/echotest"
	"echosphere-client/internal/gateway"
	"echosphere-client/internal/localstore"
	"echosphere-client/internal/rest"
	"echosphere-client/internal/store"
	"echosphere-client/internal/validator"
)

type fixture struct {
	srv     *echotest.Server
	local   *localstore.Store
	gate    *gateway.Gateway
	store   *store.Store
	session *Session
}

func newFixture(t *testing.T, dataDir string) *fixture {
	t.Helper()
	sugar := zap.NewNop().Sugar()

	srv := echotest.NewServer(t)
	return attach(t, srv, dataDir, sugar)
}

// attach builds a session against an existing server and data dir, so a
// test can simulate a second application start.
func attach(t *testing.T, srv *echotest.Server, dataDir string, sugar *zap.SugaredLogger) *fixture {
	t.Helper()

	local, err := localstore.Open(filepath.Join(dataDir, "client.db"), sugar)
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })

	restClient := rest.NewClient(srv.URL(), sugar)
	gate := gateway.New(srv.URL(), sugar)
	gate.SetReconnectPolicy(3, 20*time.Millisecond, time.Second)
	t.Cleanup(gate.Disconnect)

	st := store.New()
	return &fixture{
		srv:     srv,
		local:   local,
		gate:    gate,
		store:   st,
		session: New(restClient, gate, local, st, sugar),
	}
}

func waitConnected(t *testing.T, g *gateway.Gateway) {
	t.Helper()
	require.Eventually(t, g.Connected, 2*time.Second, 10*time.Millisecond)
}

func TestSignupEstablishesSession(t *testing.T) {
	f := newFixture(t, t.TempDir())
	ctx := context.Background()

	user, err := f.session.Signup(ctx, "nova", "nova@example.com", "Password1")
	require.NoError(t, err)
	assert.Equal(t, "nova", user.Username)
	assert.True(t, f.session.Authenticated())
	waitConnected(t, f.gate)

	token, err := f.local.Token()
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestLoginValidatesBeforeRoundTrip(t *testing.T) {
	f := newFixture(t, t.TempDir())

	_, err := f.session.Login(context.Background(), "not-an-email", "short")
	require.Error(t, err)

	var fieldErrs validator.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs, "email")
	assert.Contains(t, fieldErrs, "password")
	assert.False(t, f.session.Authenticated())
}

func TestRestoreFromPersistedToken(t *testing.T) {
	dataDir := t.TempDir()
	sugar := zap.NewNop().Sugar()

	first := newFixture(t, dataDir)
	ctx := context.Background()
	_, err := first.session.Signup(ctx, "nova", "nova@example.com", "Password1")
	require.NoError(t, err)
	waitConnected(t, first.gate)
	first.gate.Disconnect()

	// second start on the same data dir picks the session back up
	second := attach(t, first.srv, dataDir, sugar)
	restored, err := second.session.Restore(ctx)
	require.NoError(t, err)
	require.True(t, restored)

	user, ok := second.session.User()
	require.True(t, ok)
	assert.Equal(t, "nova", user.Username)
	waitConnected(t, second.gate)
}

func TestRestoreWithoutTokenDoesNothing(t *testing.T) {
	f := newFixture(t, t.TempDir())

	restored, err := f.session.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, restored)
	assert.False(t, f.session.Authenticated())
	assert.False(t, f.gate.Connected())
}

func TestRestoreDiscardsExpiredToken(t *testing.T) {
	f := newFixture(t, t.TempDir())
	require.NoError(t, f.local.SetToken(f.srv.ExpiredToken()))

	restored, err := f.session.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, restored)

	// the dead token is gone, not retried forever
	token, err := f.local.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestRestoreDiscardsRejectedToken(t *testing.T) {
	f := newFixture(t, t.TempDir())

	// well-formed and unexpired, but for a user this server doesn't know
	require.NoError(t, f.local.SetToken(foreignToken(t)))

	restored, err := f.session.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, restored)
	assert.False(t, f.session.Authenticated())
}

func foreignToken(t *testing.T) string {
	t.Helper()
	other := echotest.NewServer(t)
	token, _ := other.CreateUser("ghost")
	return token
}

func TestLogoutTearsEverythingDown(t *testing.T) {
	f := newFixture(t, t.TempDir())
	ctx := context.Background()

	_, err := f.session.Signup(ctx, "nova", "nova@example.com", "Password1")
	require.NoError(t, err)
	waitConnected(t, f.gate)
	f.store.SetServers(nil)

	f.session.Logout()
	f.session.Logout() // idempotent

	assert.False(t, f.session.Authenticated())
	assert.False(t, f.gate.Connected())
	token, err := f.local.Token()
	require.NoError(t, err)
	assert.Empty(t, token)

	_, ok := f.session.User()
	assert.False(t, ok)
}

func TestThemeRoundTrip(t *testing.T) {
	f := newFixture(t, t.TempDir())

	require.NoError(t, f.session.SetTheme("midnight"))
	theme, err := f.session.Theme()
	require.NoError(t, err)
	assert.Equal(t, "midnight", theme)
}
