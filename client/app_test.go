package client

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"tripwise/auth"
	"tripwise/config"
	"tripwise/db"
	"tripwise/forms"
	"tripwise/handlers"
	"tripwise/models"
	"tripwise/screens"
	"tripwise/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 3 * time.Second

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb, err := db.Open("", ":memory:")
	require.NoError(t, err)
	require.NoError(t, models.Init(gdb))
	s, err := store.NewGormStore(gdb)
	require.NoError(t, err)
	server := httptest.NewServer(handlers.NewRouter(gdb, &handlers.API{Store: s, Users: auth.NewService(gdb)}))
	t.Cleanup(server.Close)
	return server
}

func shortSplash(t *testing.T) {
	t.Helper()
	previous := config.SPLASH_DELAY_MS
	config.SPLASH_DELAY_MS = 10
	t.Cleanup(func() { config.SPLASH_DELAY_MS = previous })
}

type notices struct {
	mutex    sync.Mutex
	messages []string
}

func (n *notices) Notify(message string) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.messages = append(n.messages, message)
}

func (n *notices) all() []string {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return append([]string{}, n.messages...)
}

func homeReady(t *testing.T, a *App) screens.HomeState {
	t.Helper()
	require.Eventually(t, func() bool {
		st := a.Home.State()
		return st.Status == screens.StatusReady && len(st.Places) > 0
	}, waitFor, 10*time.Millisecond)
	return a.Home.State()
}

func TestSplashLoginHome(t *testing.T) {
	ctx := context.Background()
	shortSplash(t)
	server := newServer(t)
	toasts := &notices{}
	a, err := New(server.URL, nil, toasts)
	require.NoError(t, err)
	assert.Equal(t, screens.RouteSplash, a.Stack.Current().Route)

	require.NoError(t, a.Start(ctx))
	assert.Equal(t, screens.RouteLogin, a.Stack.Current().Route)

	require.NoError(t, a.Login.GoToSignUp())
	require.NoError(t, a.SignUp.Submit(ctx, forms.SignUp{Email: "ann@example.com", Password: "abcdef", Confirm: "abcdef"}))
	assert.Equal(t, screens.RouteLogin, a.Stack.Current().Route)
	assert.Equal(t, []string{screens.MessageAccountCreated}, toasts.all())

	require.NoError(t, a.Login.Submit(ctx, forms.Login{Email: "ann@example.com", Password: "abcdef"}))
	current := a.Stack.Current()
	assert.Equal(t, screens.RouteHome, current.Route)
	assert.Len(t, a.Stack.History(), 1)
	st := homeReady(t, a)
	assert.Equal(t, current.Params.UserID, st.UserID)
	assert.Len(t, st.Places, 6)

	require.NoError(t, a.Home.OpenDetails("4"))
	require.Eventually(t, func() bool {
		d := a.Details.State()
		return d.Status == screens.StatusReady && d.Place != nil && d.Place.Name == "Bella Italia"
	}, waitFor, 10*time.Millisecond)

	require.NoError(t, a.Details.OpenMap(ctx))
	assert.True(t, a.Permission.Granted())
	require.Eventually(t, func() bool {
		return a.Map.State().Status == screens.StatusReady
	}, waitFor, 10*time.Millisecond)
	assert.Equal(t, "22 Market Ln, City", a.Map.State().Address)

	require.NoError(t, a.Map.Back())
	assert.Equal(t, screens.RouteDetails, a.Stack.Current().Route)
	assert.Equal(t, screens.StatusReady, a.Details.State().Status, "details stay mounted under the map")
	require.NoError(t, a.Stack.Back())
	assert.Equal(t, screens.RouteHome, a.Stack.Current().Route)

	require.NoError(t, a.Home.Logout(ctx))
	assert.Equal(t, screens.RouteLogin, a.Stack.Current().Route)
	_, ok := a.Remote.CurrentUserID()
	assert.False(t, ok)
}

func TestStartRestoresSession(t *testing.T) {
	ctx := context.Background()
	shortSplash(t)
	server := newServer(t)
	a, err := New(server.URL, nil, nil)
	require.NoError(t, err)
	require.NoError(t, a.Remote.SignUp(ctx, "ann@example.com", "abcdef"))
	id, _ := a.Remote.CurrentUserID()

	require.NoError(t, a.Start(ctx))
	assert.Equal(t, screens.Entry{Route: screens.RouteHome, Params: screens.Params{UserID: id}}, a.Stack.Current())
	assert.Len(t, a.Stack.History(), 1)
	assert.Equal(t, id, homeReady(t, a).UserID)
}

func TestStartWithoutServer(t *testing.T) {
	shortSplash(t)
	server := newServer(t)
	url := server.URL
	server.Close()

	a, err := New(url, nil, nil)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	assert.Equal(t, screens.RouteLogin, a.Stack.Current().Route)
}

func TestStartCancelled(t *testing.T) {
	server := newServer(t)
	a, err := New(server.URL, nil, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, a.Start(ctx), context.Canceled)
	assert.Equal(t, screens.RouteSplash, a.Stack.Current().Route)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.com", nil, nil)
	assert.Error(t, err)
}

func TestGrantOnRequest(t *testing.T) {
	g := &GrantOnRequest{}
	assert.False(t, g.Granted())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Request(ctx)
	assert.Error(t, err)
	assert.False(t, g.Granted())

	granted, err := g.Request(context.Background())
	require.NoError(t, err)
	assert.True(t, granted)
	assert.True(t, g.Granted())
}
